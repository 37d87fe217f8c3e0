package lifecycle

import (
	"strings"

	"pubmarket/internal/apperr"
	"pubmarket/internal/models"
	"pubmarket/internal/validation"
)

type fieldErrors []apperr.FieldError

func (f *fieldErrors) missing(field string) {
	*f = append(*f, apperr.FieldError{Field: field, Problem: apperr.ProblemMissing})
}

func (f *fieldErrors) invalid(field, detail string) {
	*f = append(*f, apperr.FieldError{Field: field, Problem: apperr.ProblemInvalid, Detail: detail})
}

// err returns a validation error for the collected problems, or nil.
// Repeated reports of the same field and problem are merged.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	type key struct{ field, problem string }
	seen := make(map[key]bool, len(f))
	out := make([]apperr.FieldError, 0, len(f))
	for _, e := range f {
		k := key{e.Field, e.Problem}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return apperr.Validation(out)
}

// required records a missing field when v is blank and reports whether v is present.
func (f *fieldErrors) required(field, v string) bool {
	if strings.TrimSpace(v) == "" {
		f.missing(field)
		return false
	}
	return true
}

func (f *fieldErrors) checkEmail(field, v string) {
	if ok, msg := validation.ValidateEmail(validation.NormalizeEmail(v)); !ok {
		f.invalid(field, msg)
	}
}

func (f *fieldErrors) checkWebsite(field, v string) {
	if ok, msg := validation.ValidateURL(strings.TrimSpace(v)); !ok {
		f.invalid(field, msg)
	}
}

func (f *fieldErrors) checkCategory(v string) {
	if !models.IsCategory(v) {
		f.invalid("category", "unknown category")
	}
}

func (f *fieldErrors) checkGrayNiches(niches []string) {
	for _, n := range niches {
		if !models.IsGrayNiche(n) {
			f.invalid("gray_niches", "unknown gray niche: "+n)
			return
		}
	}
}

func (f *fieldErrors) checkAuthority(field string, v int) {
	if v < 0 || v > 100 {
		f.invalid(field, "must be between 0 and 100")
	}
}

func (f *fieldErrors) checkNonNegative(field string, v int64) {
	if v < 0 {
		f.invalid(field, "must not be negative")
	}
}

func (f *fieldErrors) checkPrice(field string, v float64) {
	if v < 0 {
		f.invalid(field, "must not be negative")
	}
}

func (f *fieldErrors) checkBusinessType(v string) {
	if v != "" && !models.IsBusinessType(v) {
		f.invalid("business_type", "unknown business type")
	}
}

func (f *fieldErrors) checkTrafficSource(v string) {
	if v != "" && !models.IsTrafficSource(v) {
		f.invalid("primary_traffic_source", "unknown traffic source")
	}
}

func (f *fieldErrors) checkContent(c models.ContentDetails) {
	if c.PostSampleURL != "" {
		if ok, msg := validation.ValidateURL(c.PostSampleURL); !ok {
			f.invalid("content_details.post_sample_url", msg)
		}
	}
}

// validateInput checks a submission. Required fields that are blank are
// reported as missing; present but malformed values as invalid.
func validateInput(in models.ListingInput) error {
	var fe fieldErrors

	fe.required("full_name", in.FullName)
	if fe.required("email", in.Email) {
		fe.checkEmail("email", in.Email)
	}
	fe.required("company_name", in.CompanyName)
	if fe.required("website", in.Website) {
		fe.checkWebsite("website", in.Website)
	}
	if fe.required("category", in.Category) {
		fe.checkCategory(in.Category)
	}

	fe.checkGrayNiches(in.GrayNiches)
	fe.checkNonNegative("audience_size", in.AudienceSize)
	fe.checkAuthority("domain_authority", in.DomainAuthority)
	fe.checkAuthority("page_authority", in.PageAuthority)
	fe.checkNonNegative("monthly_traffic_ahrefs", in.MonthlyTrafficAhrefs)
	fe.checkPrice("standard_post_price", in.StandardPostPrice)
	fe.checkPrice("gray_niche_price", in.GrayNichePrice)
	fe.checkBusinessType(in.BusinessType)
	fe.checkTrafficSource(in.PrimaryTrafficSource)
	fe.checkNonNegative("monthly_page_views", in.MonthlyPageViews)
	fe.checkContent(in.ContentDetails)

	return fe.err()
}

// validatePatch checks only the fields a patch sets.
func validatePatch(p models.ListingPatch) error {
	var fe fieldErrors

	if p.FullName != nil {
		fe.required("full_name", *p.FullName)
	}
	if p.Email != nil && fe.required("email", *p.Email) {
		fe.checkEmail("email", *p.Email)
	}
	if p.CompanyName != nil {
		fe.required("company_name", *p.CompanyName)
	}
	if p.Website != nil && fe.required("website", *p.Website) {
		fe.checkWebsite("website", *p.Website)
	}
	if p.Category != nil && fe.required("category", *p.Category) {
		fe.checkCategory(*p.Category)
	}
	if p.GrayNiches != nil {
		fe.checkGrayNiches(*p.GrayNiches)
	}
	if p.AudienceSize != nil {
		fe.checkNonNegative("audience_size", *p.AudienceSize)
	}
	if p.DomainAuthority != nil {
		fe.checkAuthority("domain_authority", *p.DomainAuthority)
	}
	if p.PageAuthority != nil {
		fe.checkAuthority("page_authority", *p.PageAuthority)
	}
	if p.MonthlyTrafficAhrefs != nil {
		fe.checkNonNegative("monthly_traffic_ahrefs", *p.MonthlyTrafficAhrefs)
	}
	if p.StandardPostPrice != nil {
		fe.checkPrice("standard_post_price", *p.StandardPostPrice)
	}
	if p.GrayNichePrice != nil {
		fe.checkPrice("gray_niche_price", *p.GrayNichePrice)
	}
	if p.BusinessType != nil {
		fe.checkBusinessType(*p.BusinessType)
	}
	if p.PrimaryTrafficSource != nil {
		fe.checkTrafficSource(*p.PrimaryTrafficSource)
	}
	if p.MonthlyPageViews != nil {
		fe.checkNonNegative("monthly_page_views", *p.MonthlyPageViews)
	}
	if p.ContentDetails != nil {
		fe.checkContent(*p.ContentDetails)
	}

	return fe.err()
}

// newListing builds a pending listing from a validated submission.
func newListing(owner *models.User, in models.ListingInput) *models.PublisherRequest {
	r := &models.PublisherRequest{
		UserID:               owner.ID,
		FullName:             strings.TrimSpace(in.FullName),
		Email:                validation.NormalizeEmail(in.Email),
		CompanyName:          strings.TrimSpace(in.CompanyName),
		Website:              validation.NormalizeWebsite(in.Website),
		Phone:                strings.TrimSpace(in.Phone),
		Address:              strings.TrimSpace(in.Address),
		Category:             in.Category,
		GrayNiches:           dedupe(in.GrayNiches),
		AudienceSize:         in.AudienceSize,
		DomainAuthority:      in.DomainAuthority,
		PageAuthority:        in.PageAuthority,
		MonthlyTrafficAhrefs: in.MonthlyTrafficAhrefs,
		TopTrafficCountry:    strings.TrimSpace(in.TopTrafficCountry),
		Pricing:              pricing(in.StandardPostPrice, in.GrayNichePrice),
		LinkDetails: models.LinkDetails{
			DofollowAllowed: boolOr(in.DofollowAllowed, true),
			NofollowAllowed: boolOr(in.NofollowAllowed, true),
		},
		ContentDetails:       in.ContentDetails,
		BusinessType:         stringOr(in.BusinessType, models.DefaultBusinessType),
		MonthlyPageViews:     in.MonthlyPageViews,
		PrimaryTrafficSource: stringOr(in.PrimaryTrafficSource, models.DefaultTrafficSource),
		ContentLanguages:     dedupe(in.ContentLanguages),
		Status:               models.StatusPending,
	}
	return r
}

// applyPatch copies the allow-listed fields of p onto r.
func applyPatch(r *models.PublisherRequest, p models.ListingPatch) {
	if p.FullName != nil {
		r.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.Email != nil {
		r.Email = validation.NormalizeEmail(*p.Email)
	}
	if p.CompanyName != nil {
		r.CompanyName = strings.TrimSpace(*p.CompanyName)
	}
	if p.Website != nil {
		r.Website = validation.NormalizeWebsite(*p.Website)
	}
	if p.Phone != nil {
		r.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		r.Address = strings.TrimSpace(*p.Address)
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.GrayNiches != nil {
		r.GrayNiches = dedupe(*p.GrayNiches)
	}
	if p.AudienceSize != nil {
		r.AudienceSize = *p.AudienceSize
	}
	if p.DomainAuthority != nil {
		r.DomainAuthority = *p.DomainAuthority
	}
	if p.PageAuthority != nil {
		r.PageAuthority = *p.PageAuthority
	}
	if p.MonthlyTrafficAhrefs != nil {
		r.MonthlyTrafficAhrefs = *p.MonthlyTrafficAhrefs
	}
	if p.TopTrafficCountry != nil {
		r.TopTrafficCountry = strings.TrimSpace(*p.TopTrafficCountry)
	}
	if p.StandardPostPrice != nil || p.GrayNichePrice != nil {
		standard := r.Pricing.StandardPostPrice
		gray := r.Pricing.GrayNichePrice
		if p.StandardPostPrice != nil {
			// A gray price that only mirrored the old standard price follows it.
			if gray == standard && p.GrayNichePrice == nil {
				gray = 0
			}
			standard = *p.StandardPostPrice
		}
		if p.GrayNichePrice != nil {
			gray = *p.GrayNichePrice
		}
		r.Pricing = pricing(standard, gray)
	}
	if p.DofollowAllowed != nil {
		r.LinkDetails.DofollowAllowed = *p.DofollowAllowed
	}
	if p.NofollowAllowed != nil {
		r.LinkDetails.NofollowAllowed = *p.NofollowAllowed
	}
	if p.ContentDetails != nil {
		r.ContentDetails = *p.ContentDetails
	}
	if p.BusinessType != nil {
		r.BusinessType = stringOr(*p.BusinessType, models.DefaultBusinessType)
	}
	if p.MonthlyPageViews != nil {
		r.MonthlyPageViews = *p.MonthlyPageViews
	}
	if p.PrimaryTrafficSource != nil {
		r.PrimaryTrafficSource = stringOr(*p.PrimaryTrafficSource, models.DefaultTrafficSource)
	}
	if p.ContentLanguages != nil {
		r.ContentLanguages = dedupe(*p.ContentLanguages)
	}
}

// pricing applies the gray niche default: an unset gray price equals the standard price.
func pricing(standard, gray float64) models.Pricing {
	if gray <= 0 {
		gray = standard
	}
	return models.Pricing{StandardPostPrice: standard, GrayNichePrice: gray}
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func stringOr(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
