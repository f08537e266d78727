package linkmeta

import (
	"net/url"
	"strings"
)

// antiBotPhrases are interstitial markers seen on challenge pages. Matched
// case-insensitively against every text field a provider returns.
var antiBotPhrases = []string{
	"just a moment",
	"attention required",
	"access denied",
	"access to this page has been denied",
	"are you a robot",
	"verify you are human",
	"verification required",
	"please verify you are a human",
	"enable javascript and cookies to continue",
	"checking your browser",
	"403 forbidden",
	"captcha",
	"antibot",
}

// protectedMarketplaceDomain is a marketplace known to serve challenge
// pages to non-browser clients. Responses from it get a stricter check:
// a page without a resolvable image is almost certainly an interstitial.
const protectedMarketplaceDomain = "ozon.ru"

// marketplaceChallengeMarkers are challenge-page strings specific to the
// protected marketplace.
var marketplaceChallengeMarkers = []string{
	"доступ ограничен",
	"challenge page",
}

// classifyBlocked decides whether a provider's raw output is an
// anti-scraping response rather than real content. It must run on every
// provider result before the result is accepted into a merge.
func classifyBlocked(textFields []string, imageURL, sourceURL string) (bool, BlockedReason) {
	for _, field := range textFields {
		lower := strings.ToLower(field)
		for _, phrase := range antiBotPhrases {
			if strings.Contains(lower, phrase) {
				return true, ReasonAntiBot
			}
		}
	}

	if isProtectedMarketplace(sourceURL) {
		for _, field := range textFields {
			lower := strings.ToLower(field)
			for _, marker := range marketplaceChallengeMarkers {
				if strings.Contains(lower, marker) {
					return true, ReasonAntiBot
				}
			}
		}
		// Real product pages always resolve an image; a missing one is
		// circumstantial evidence of a challenge page, hence "unknown".
		if imageURL == "" {
			return true, ReasonUnknown
		}
	}

	return false, ReasonNone
}

func isProtectedMarketplace(sourceURL string) bool {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	return host == protectedMarketplaceDomain || strings.HasSuffix(host, "."+protectedMarketplaceDomain)
}
