package db

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pubmarket/internal/models"
)

// listingColumns is the standard column list for publisher request queries.
const listingColumns = `id, user_id, full_name, email, company_name, website, phone, address,
	category, gray_niches, audience_size, domain_authority, page_authority,
	monthly_traffic_ahrefs, top_traffic_country, standard_post_price, gray_niche_price,
	dofollow_allowed, nofollow_allowed, content_details, business_type, monthly_page_views,
	primary_traffic_source, content_languages, status, website_analysis, admin_notes,
	rejection_reason, reviewed_by, reviewed_at, approved_by, approval_date, version,
	created_at, updated_at`

// Derived analytics expressions. A missing analysis block counts as zero.
const (
	trafficExpr = `COALESCE((website_analysis->>'monthly_traffic')::BIGINT, 0)`
	trustExpr   = `COALESCE((website_analysis->>'trust_score')::INTEGER, 0)`
)

func scanListing(row pgx.Row) (*models.PublisherRequest, error) {
	var r models.PublisherRequest
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.FullName,
		&r.Email,
		&r.CompanyName,
		&r.Website,
		&r.Phone,
		&r.Address,
		&r.Category,
		&r.GrayNiches,
		&r.AudienceSize,
		&r.DomainAuthority,
		&r.PageAuthority,
		&r.MonthlyTrafficAhrefs,
		&r.TopTrafficCountry,
		&r.Pricing.StandardPostPrice,
		&r.Pricing.GrayNichePrice,
		&r.LinkDetails.DofollowAllowed,
		&r.LinkDetails.NofollowAllowed,
		&r.ContentDetails,
		&r.BusinessType,
		&r.MonthlyPageViews,
		&r.PrimaryTrafficSource,
		&r.ContentLanguages,
		&r.Status,
		&r.WebsiteAnalysis,
		&r.AdminNotes,
		&r.RejectionReason,
		&r.ReviewedBy,
		&r.ReviewedAt,
		&r.ApprovedBy,
		&r.ApprovalDate,
		&r.Version,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanListings(rows pgx.Rows) ([]models.PublisherRequest, error) {
	defer rows.Close()

	var listings []models.PublisherRequest
	for rows.Next() {
		r, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *r)
	}

	return listings, rows.Err()
}

// CreateListing inserts a new publisher request and fills in its generated fields.
func (d *DB) CreateListing(ctx context.Context, r *models.PublisherRequest) error {
	query := `
		INSERT INTO publisher_requests (
			user_id, full_name, email, company_name, website, phone, address,
			category, gray_niches, audience_size, domain_authority, page_authority,
			monthly_traffic_ahrefs, top_traffic_country, standard_post_price, gray_niche_price,
			dofollow_allowed, nofollow_allowed, content_details, business_type, monthly_page_views,
			primary_traffic_source, content_languages, status, website_analysis
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING id, version, created_at, updated_at
	`

	err := d.Pool.QueryRow(ctx, query,
		r.UserID,
		r.FullName,
		r.Email,
		r.CompanyName,
		r.Website,
		r.Phone,
		r.Address,
		r.Category,
		nonNilStrings(r.GrayNiches),
		r.AudienceSize,
		r.DomainAuthority,
		r.PageAuthority,
		r.MonthlyTrafficAhrefs,
		r.TopTrafficCountry,
		r.Pricing.StandardPostPrice,
		r.Pricing.GrayNichePrice,
		r.LinkDetails.DofollowAllowed,
		r.LinkDetails.NofollowAllowed,
		r.ContentDetails,
		r.BusinessType,
		r.MonthlyPageViews,
		r.PrimaryTrafficSource,
		nonNilStrings(r.ContentLanguages),
		r.Status,
		r.WebsiteAnalysis,
	).Scan(&r.ID, &r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateActiveListing
		}
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// GetListing retrieves a publisher request by ID.
func (d *DB) GetListing(ctx context.Context, id uuid.UUID) (*models.PublisherRequest, error) {
	return scanListing(d.Pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM publisher_requests WHERE id = $1`, id))
}

// FindActiveListing returns the owner's pending or under-review request for a website.
func (d *DB) FindActiveListing(ctx context.Context, userID uuid.UUID, website string) (*models.PublisherRequest, error) {
	query := `
		SELECT ` + listingColumns + ` FROM publisher_requests
		WHERE user_id = $1 AND website = $2 AND status IN ($3, $4)
		LIMIT 1
	`
	return scanListing(d.Pool.QueryRow(ctx, query, userID, website, models.StatusPending, models.StatusUnderReview))
}

// ListingsByOwner returns every request owned by the user, newest first.
func (d *DB) ListingsByOwner(ctx context.Context, userID uuid.UUID) ([]models.PublisherRequest, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+listingColumns+` FROM publisher_requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanListings(rows)
}

// SaveListing writes every mutable field of r if the stored version still
// equals expectedVersion. On success r carries the new version.
func (d *DB) SaveListing(ctx context.Context, r *models.PublisherRequest, expectedVersion int64) error {
	return saveListing(ctx, d.Pool, r, expectedVersion)
}

// SaveReview saves a status change and, when promoteOwner is set, raises the
// owner to publisher in the same transaction.
func (d *DB) SaveReview(ctx context.Context, r *models.PublisherRequest, expectedVersion int64, promoteOwner bool) (bool, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if err := saveListing(ctx, tx, r, expectedVersion); err != nil {
		return false, err
	}

	promoted := false
	if promoteOwner {
		promoted, err = promoteUser(ctx, tx, r.UserID)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return promoted, nil
}

func saveListing(ctx context.Context, q querier, r *models.PublisherRequest, expectedVersion int64) error {
	query := `
		UPDATE publisher_requests SET
			full_name = $1, email = $2, company_name = $3, website = $4, phone = $5, address = $6,
			category = $7, gray_niches = $8, audience_size = $9, domain_authority = $10,
			page_authority = $11, monthly_traffic_ahrefs = $12, top_traffic_country = $13,
			standard_post_price = $14, gray_niche_price = $15, dofollow_allowed = $16,
			nofollow_allowed = $17, content_details = $18, business_type = $19,
			monthly_page_views = $20, primary_traffic_source = $21, content_languages = $22,
			status = $23, website_analysis = $24, admin_notes = $25, rejection_reason = $26,
			reviewed_by = $27, reviewed_at = $28, approved_by = $29, approval_date = $30,
			version = version + 1, updated_at = NOW()
		WHERE id = $31 AND version = $32
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		r.FullName,
		r.Email,
		r.CompanyName,
		r.Website,
		r.Phone,
		r.Address,
		r.Category,
		nonNilStrings(r.GrayNiches),
		r.AudienceSize,
		r.DomainAuthority,
		r.PageAuthority,
		r.MonthlyTrafficAhrefs,
		r.TopTrafficCountry,
		r.Pricing.StandardPostPrice,
		r.Pricing.GrayNichePrice,
		r.LinkDetails.DofollowAllowed,
		r.LinkDetails.NofollowAllowed,
		r.ContentDetails,
		r.BusinessType,
		r.MonthlyPageViews,
		r.PrimaryTrafficSource,
		nonNilStrings(r.ContentLanguages),
		r.Status,
		r.WebsiteAnalysis,
		r.AdminNotes,
		r.RejectionReason,
		r.ReviewedBy,
		r.ReviewedAt,
		r.ApprovedBy,
		r.ApprovalDate,
		r.ID,
		expectedVersion,
	).Scan(&r.Version, &r.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return missingOrConflict(ctx, q, r.ID)
	}
	if isUniqueViolation(err) {
		return ErrDuplicateActiveListing
	}
	return err
}

// DeleteListing removes a request if its stored version equals expectedVersion.
// A negative expectedVersion deletes unconditionally.
func (d *DB) DeleteListing(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	query := `DELETE FROM publisher_requests WHERE id = $1 AND ($2::BIGINT < 0 OR version = $2::BIGINT)`
	result, err := d.Pool.Exec(ctx, query, id, expectedVersion)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return missingOrConflict(ctx, d.Pool, id)
	}
	return nil
}

func missingOrConflict(ctx context.Context, q querier, id uuid.UUID) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM publisher_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrListingNotFound
}

// SearchListings returns one page of requests matching the filter and the total match count.
func (d *DB) SearchListings(ctx context.Context, f models.ListingFilter) ([]models.PublisherRequest, int, error) {
	where, args := listingWhere(f)

	var total int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM publisher_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `SELECT ` + listingColumns + ` FROM publisher_requests` + where + ` ORDER BY ` + listingOrder(f.Sort)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sql += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sql += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := d.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	listings, err := scanListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func listingWhere(f models.ListingFilter) (string, []any) {
	where := ` WHERE 1=1`
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return `$` + strconv.Itoa(len(args))
	}

	if f.Status != "" {
		where += ` AND status = ` + next(f.Status)
	}
	if f.OwnerID != nil {
		where += ` AND user_id = ` + next(*f.OwnerID)
	}
	if f.Category != "" {
		where += ` AND category = ` + next(f.Category)
	}
	if f.GrayNiche != "" {
		where += ` AND ` + next(f.GrayNiche) + ` = ANY(gray_niches)`
	}
	if f.MinPrice != nil {
		where += ` AND standard_post_price >= ` + next(*f.MinPrice)
	}
	if f.MaxPrice != nil {
		where += ` AND standard_post_price <= ` + next(*f.MaxPrice)
	}
	if f.MinTrustScore != nil {
		where += ` AND ` + trustExpr + ` >= ` + next(*f.MinTrustScore)
	}
	if f.MinMonthlyTraffic != nil {
		where += ` AND ` + trafficExpr + ` >= ` + next(*f.MinMonthlyTraffic)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := next(likePattern(s))
		where += ` AND (company_name ILIKE ` + p + ` OR website ILIKE ` + p +
			` OR email ILIKE ` + p + ` OR full_name ILIKE ` + p + `)`
	}

	return where, args
}

func listingOrder(sort string) string {
	switch sort {
	case models.SortTrustScore:
		return trustExpr + ` DESC, created_at DESC`
	case models.SortDomainAuthority:
		return `domain_authority DESC, created_at DESC`
	case models.SortPrice:
		return `standard_post_price ASC, created_at DESC`
	case models.SortNewest:
		return `created_at DESC`
	default:
		return trafficExpr + ` DESC, created_at DESC`
	}
}

// CountListingsByStatus counts requests per status, optionally for a single owner.
func (d *DB) CountListingsByStatus(ctx context.Context, ownerID *uuid.UUID) (models.StatusCounts, error) {
	var counts models.StatusCounts

	query := `SELECT status, COUNT(*) FROM publisher_requests`
	var args []any
	if ownerID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *ownerID)
	}
	query += ` GROUP BY status`

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var status models.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return counts, err
		}
		counts.Add(status, n)
	}

	return counts, rows.Err()
}

// SumApprovedTraffic totals monthly traffic across approved requests.
func (d *DB) SumApprovedTraffic(ctx context.Context) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(` + trafficExpr + `), 0)::BIGINT FROM publisher_requests WHERE status = $1`
	err := d.Pool.QueryRow(ctx, query, models.StatusApproved).Scan(&total)
	return total, err
}

// ListUnpromotedOwners returns owners of approved requests whose role is
// still below publisher.
func (d *DB) ListUnpromotedOwners(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT p.user_id
		FROM publisher_requests p
		JOIN users u ON u.id = p.user_id
		WHERE p.status = $1 AND u.role IN ($2, $3)
	`
	rows, err := d.Pool.Query(ctx, query, models.StatusApproved, models.RoleUser, models.RoleAdvertiser)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// likePattern builds a contains-pattern for ILIKE with wildcards escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
