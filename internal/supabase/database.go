package supabase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"solo-drops-backend/internal/models"
	"solo-drops-backend/internal/repository"
)

// DatabaseClient talks to the Supabase Postgres database directly.
type DatabaseClient struct {
	db *sql.DB
}

var _ repository.Store = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) DB() *sql.DB {
	return d.db
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func notFound(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
		return fmt.Errorf("%s: %w", msg, repository.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// isInvalidText reports a value Postgres could not parse for its column
// type, such as a malformed uuid in a WHERE clause.
func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "22P02"
}

const settingsColumns = `id, title, description, price, discount, image_url, additional_images,
	video_url, stock, sku, status, metadata, created_at, updated_at`

func scanSettings(row rowScanner) (*models.ProductSettings, error) {
	var (
		s        models.ProductSettings
		images   []string
		videoURL sql.NullString
		sku      sql.NullString
		status   string
		metadata []byte
	)
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.Price, &s.Discount, &s.ImageURL, pq.Array(&images),
		&videoURL, &s.Stock, &sku, &status, &metadata, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []string{}
	}
	s.AdditionalImages = images
	s.Status = models.ProductStatus(status)
	if videoURL.Valid {
		s.VideoURL = &videoURL.String
	}
	if sku.Valid {
		s.SKU = &sku.String
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode settings metadata: %w", err)
		}
	}
	return &s, nil
}

func (d *DatabaseClient) GetSettings(ctx context.Context) (*models.ProductSettings, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+settingsColumns+`
		FROM product_settings
		ORDER BY created_at ASC
		LIMIT 1
	`)
	s, err := scanSettings(row)
	if err != nil {
		return nil, notFound(err, "failed to get settings")
	}
	return s, nil
}

func (d *DatabaseClient) UpdateSettings(ctx context.Context, id string, patch models.SettingsPatch) (*models.ProductSettings, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.Discount != nil {
		set("discount", *patch.Discount)
	}
	if patch.ImageURL != nil {
		set("image_url", *patch.ImageURL)
	}
	if patch.AdditionalImages != nil {
		set("additional_images", pq.Array(*patch.AdditionalImages))
	}
	if patch.VideoURL != nil {
		set("video_url", *patch.VideoURL)
	}
	if patch.Stock != nil {
		set("stock", *patch.Stock)
	}
	if patch.SKU != nil {
		set("sku", *patch.SKU)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Metadata != nil {
		metadataJSON, err := json.Marshal(patch.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode settings metadata: %w", err)
		}
		set("metadata", string(metadataJSON))
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: empty settings patch", models.ErrInvalidInput)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE product_settings SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), settingsColumns)

	s, err := scanSettings(d.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err, "failed to update settings %s", id)
	}
	return s, nil
}

const orderColumns = `id, created_at, first_name, last_name, email, phone, country, address,
	zip_code, paypal_order_id, status, tracking_number, shipping_notes`

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o        models.Order
		status   string
		tracking sql.NullString
		notes    sql.NullString
	)
	err := row.Scan(
		&o.ID, &o.CreatedAt, &o.FirstName, &o.LastName, &o.Email, &o.Phone, &o.Country, &o.Address,
		&o.ZipCode, &o.PayPalOrderID, &status, &tracking, &notes,
	)
	if err != nil {
		return nil, err
	}
	o.Status = models.OrderStatus(status)
	if tracking.Valid {
		o.TrackingNumber = &tracking.String
	}
	if notes.Valid {
		o.ShippingNotes = &notes.String
	}
	return &o, nil
}

func (d *DatabaseClient) CreateOrder(ctx context.Context, order models.NewOrder) (*models.Order, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	sh := order.Shipping
	row := d.db.QueryRowContext(ctx, `
		INSERT INTO orders (first_name, last_name, email, phone, country, address, zip_code, paypal_order_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+orderColumns,
		sh.FirstName, sh.LastName, sh.Email, sh.Phone, sh.Country, sh.Address, sh.ZipCode,
		order.PayPalOrderID, string(order.Status),
	)
	o, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return o, nil
}

func (d *DatabaseClient) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(d.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, notFound(err, "failed to get order %s", id)
	}
	return o, nil
}

func (d *DatabaseClient) GetOrderByPayPalOrderID(ctx context.Context, paypalOrderID string) (*models.Order, error) {
	o, err := scanOrder(d.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE paypal_order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, paypalOrderID))
	if err != nil {
		return nil, notFound(err, "failed to get order for payment %s", paypalOrderID)
	}
	return o, nil
}

func (d *DatabaseClient) ListOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (d *DatabaseClient) ListOrdersByEmail(ctx context.Context, email string) ([]models.TrackedOrder, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, status, tracking_number, created_at
		FROM orders
		WHERE lower(email) = lower($1)
		ORDER BY created_at DESC
	`, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders by email: %w", err)
	}
	defer rows.Close()

	orders := make([]models.TrackedOrder, 0)
	for rows.Next() {
		var (
			o        models.TrackedOrder
			status   string
			tracking sql.NullString
		)
		if err := rows.Scan(&o.ID, &status, &tracking, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Status = models.OrderStatus(status)
		if tracking.Valid {
			o.TrackingNumber = &tracking.String
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (d *DatabaseClient) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, note string) (*models.Order, error) {
	o, err := scanOrder(d.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, shipping_notes = $2
		WHERE id = $3
		RETURNING `+orderColumns,
		string(status), note, id,
	))
	if err != nil {
		return nil, notFound(err, "failed to update order status %s", id)
	}
	return o, nil
}

func (d *DatabaseClient) UpdateTrackingNumber(ctx context.Context, id, trackingNumber string) (*models.Order, error) {
	o, err := scanOrder(d.db.QueryRowContext(ctx, `
		UPDATE orders
		SET tracking_number = $1
		WHERE id = $2
		RETURNING `+orderColumns,
		trackingNumber, id,
	))
	if err != nil {
		return nil, notFound(err, "failed to update tracking number %s", id)
	}
	return o, nil
}

func (d *DatabaseClient) ListPromotionalImages(ctx context.Context) ([]models.PromotionalImage, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, image_url, alt_text, created_at
		FROM promotional_images
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotional images: %w", err)
	}
	defer rows.Close()

	images := make([]models.PromotionalImage, 0)
	for rows.Next() {
		var img models.PromotionalImage
		if err := rows.Scan(&img.ID, &img.ImageURL, &img.AltText, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan promotional image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (d *DatabaseClient) CreatePromotionalImage(ctx context.Context, imageURL, altText string) (*models.PromotionalImage, error) {
	var img models.PromotionalImage
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO promotional_images (image_url, alt_text)
		VALUES ($1, $2)
		RETURNING id, image_url, alt_text, created_at
	`, imageURL, altText).Scan(&img.ID, &img.ImageURL, &img.AltText, &img.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create promotional image: %w", err)
	}
	return &img, nil
}

func (d *DatabaseClient) DeletePromotionalImage(ctx context.Context, id string) error {
	return d.deleteByID(ctx, "promotional_images", id)
}

func (d *DatabaseClient) ListSpecifications(ctx context.Context) ([]models.Specification, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, description, icon, created_at
		FROM specifications
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list specifications: %w", err)
	}
	defer rows.Close()

	specs := make([]models.Specification, 0)
	for rows.Next() {
		var (
			spec models.Specification
			icon string
		)
		if err := rows.Scan(&spec.ID, &spec.Title, &spec.Description, &icon, &spec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan specification: %w", err)
		}
		spec.Icon = models.SpecIcon(icon)
		specs = append(specs, spec)
	}
	return specs, rows.Err()
}

func (d *DatabaseClient) CreateSpecification(ctx context.Context, spec models.Specification) (*models.Specification, error) {
	var icon string
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO specifications (title, description, icon)
		VALUES ($1, $2, $3)
		RETURNING id, title, description, icon, created_at
	`, spec.Title, spec.Description, string(spec.Icon)).Scan(
		&spec.ID, &spec.Title, &spec.Description, &icon, &spec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create specification: %w", err)
	}
	spec.Icon = models.SpecIcon(icon)
	return &spec, nil
}

func (d *DatabaseClient) DeleteSpecification(ctx context.Context, id string) error {
	return d.deleteByID(ctx, "specifications", id)
}

// deleteByID is only called with package-constant table names.
func (d *DatabaseClient) deleteByID(ctx context.Context, table, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return notFound(err, "failed to delete from %s %s", table, id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to delete from %s %s: %w", table, id, repository.ErrNotFound)
	}
	return nil
}

const settlementColumns = `id, paypal_order_id, amount, currency, status, capture_id, order_id,
	shipping, failure_reason, created_at, updated_at`

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	var (
		s         models.Settlement
		status    string
		captureID sql.NullString
		orderID   sql.NullString
		shipping  []byte
		reason    sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.PayPalOrderID, &s.Amount, &s.Currency, &status, &captureID, &orderID,
		&shipping, &reason, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = models.SettlementStatus(status)
	if captureID.Valid {
		s.CaptureID = &captureID.String
	}
	if orderID.Valid {
		s.OrderID = &orderID.String
	}
	if reason.Valid {
		s.FailureReason = &reason.String
	}
	if len(shipping) > 0 {
		var details models.ShippingDetails
		if err := json.Unmarshal(shipping, &details); err != nil {
			return nil, fmt.Errorf("failed to decode settlement shipping: %w", err)
		}
		s.Shipping = &details
	}
	return &s, nil
}

func (d *DatabaseClient) CreateSettlement(ctx context.Context, s models.Settlement) (*models.Settlement, error) {
	var shipping interface{}
	if s.Shipping != nil {
		shippingJSON, err := json.Marshal(s.Shipping)
		if err != nil {
			return nil, fmt.Errorf("failed to encode settlement shipping: %w", err)
		}
		shipping = string(shippingJSON)
	}
	status := s.Status
	if status == "" {
		status = models.SettlementPending
	}

	created, err := scanSettlement(d.db.QueryRowContext(ctx, `
		INSERT INTO payment_settlements (paypal_order_id, amount, currency, status, shipping)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (paypal_order_id) DO NOTHING
		RETURNING `+settlementColumns,
		s.PayPalOrderID, s.Amount, s.Currency, string(status), shipping,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return d.GetSettlement(ctx, s.PayPalOrderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}
	return created, nil
}

func (d *DatabaseClient) GetSettlement(ctx context.Context, paypalOrderID string) (*models.Settlement, error) {
	s, err := scanSettlement(d.db.QueryRowContext(ctx, `
		SELECT `+settlementColumns+`
		FROM payment_settlements
		WHERE paypal_order_id = $1
	`, paypalOrderID))
	if err != nil {
		return nil, notFound(err, "failed to get settlement %s", paypalOrderID)
	}
	return s, nil
}

func (d *DatabaseClient) UpdateSettlement(ctx context.Context, paypalOrderID string, update models.SettlementUpdate) (*models.Settlement, error) {
	s, err := scanSettlement(d.db.QueryRowContext(ctx, `
		UPDATE payment_settlements
		SET status = $1,
			capture_id = COALESCE($2, capture_id),
			order_id = COALESCE($3::uuid, order_id),
			failure_reason = COALESCE($4, failure_reason),
			updated_at = NOW()
		WHERE paypal_order_id = $5
		RETURNING `+settlementColumns,
		string(update.Status), nullString(update.CaptureID), nullString(update.OrderID),
		nullString(update.FailureReason), paypalOrderID,
	))
	if err != nil {
		return nil, notFound(err, "failed to update settlement %s", paypalOrderID)
	}
	return s, nil
}

func (d *DatabaseClient) ListSettlements(ctx context.Context, status models.SettlementStatus, olderThan time.Time) ([]models.Settlement, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+settlementColumns+`
		FROM payment_settlements
		WHERE status = $1 AND updated_at < $2
		ORDER BY created_at ASC
	`, string(status), olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	settlements := make([]models.Settlement, 0)
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, *s)
	}
	return settlements, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
