package models

// Categories is the closed set of listing categories.
var Categories = []string{
	"Business/Finance",
	"Technology",
	"Health/Fitness",
	"Lifestyle",
	"Travel",
	"Food/Drink",
	"Education",
	"Fashion/Beauty",
	"Sports",
	"Entertainment",
	"Home/Garden",
	"Parenting/Family",
	"Automotive",
	"Real Estate",
	"News/Media",
	"Other",
}

// GrayNiches is the closed set of sensitive content niches.
var GrayNiches = []string{
	"Casino/Gambling",
	"CBD/Cannabis",
	"Adult",
	"Crypto/Forex",
	"Betting/Sportsbook",
	"Other",
}

// Business types
var BusinessTypes = []string{"blog", "news", "ecommerce", "corporate", "personal", "ngo", "other"}

// Traffic sources
var TrafficSources = []string{"organic", "social", "direct", "referral", "paid", "email"}

// Defaults applied to optional enum fields.
const (
	DefaultBusinessType  = "other"
	DefaultTrafficSource = "organic"
)

// IsCategory reports whether c is a known category.
func IsCategory(c string) bool { return contains(Categories, c) }

// IsGrayNiche reports whether n is a known gray niche.
func IsGrayNiche(n string) bool { return contains(GrayNiches, n) }

// IsBusinessType reports whether t is a known business type.
func IsBusinessType(t string) bool { return contains(BusinessTypes, t) }

// IsTrafficSource reports whether s is a known traffic source.
func IsTrafficSource(s string) bool { return contains(TrafficSources, s) }

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
