package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cleservice/backend/internal/domain"
	"github.com/cleservice/backend/internal/textnorm"
)

const catalogColumns = `id, name, brand, price, with_property_card, price_without_card, image_url,
		blank_reference, reproduction_type, number_description, product_description,
		is_master_key, master_key_price, needs_photo, needs_key_number, needs_card_number, file_fee`

// CatalogStore is the sqlite implementation of domain.CatalogStore.
// Besides the entry itself each row keeps the two normalized forms of its
// name, so substring and exact lookups never normalize in SQL.
type CatalogStore struct {
	DB *sql.DB
}

// NewCatalogStore creates a catalog store over db
func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{DB: db}
}

func (s *CatalogStore) FindBySubstring(ctx context.Context, text string) ([]domain.CatalogEntry, error) {
	pattern := "%" + escapeLike(textnorm.Loose(text)) + "%"
	return s.query(ctx, `SELECT `+catalogColumns+` FROM catalog_keys
		WHERE search_name LIKE ? ESCAPE '\' ORDER BY id`, pattern)
}

func (s *CatalogStore) FindAll(ctx context.Context) ([]domain.CatalogEntry, error) {
	return s.query(ctx, `SELECT `+catalogColumns+` FROM catalog_keys ORDER BY id`)
}

func (s *CatalogStore) FindByExactName(ctx context.Context, name string) (*domain.CatalogEntry, error) {
	return s.queryOne(ctx, `SELECT `+catalogColumns+` FROM catalog_keys
		WHERE match_key = ? ORDER BY id LIMIT 1`, textnorm.Key(name))
}

func (s *CatalogStore) FindByName(ctx context.Context, name string) (*domain.CatalogEntry, error) {
	return s.queryOne(ctx, `SELECT `+catalogColumns+` FROM catalog_keys WHERE name = ?`, name)
}

func (s *CatalogStore) List(ctx context.Context, q domain.CatalogQuery) ([]domain.CatalogEntry, error) {
	sqlStr, args := buildCatalogSQL(q, false)
	return s.query(ctx, sqlStr, args...)
}

func (s *CatalogStore) Count(ctx context.Context, q domain.CatalogQuery) (int, error) {
	sqlStr, args := buildCatalogSQL(q, true)
	var total int
	if err := s.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (s *CatalogStore) Create(ctx context.Context, entry *domain.CatalogEntry) error {
	id, err := insertEntry(ctx, s.DB, entry)
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// CreateMany inserts entries in one transaction; ids are assigned in place
func (s *CatalogStore) CreateMany(ctx context.Context, entries []domain.CatalogEntry) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range entries {
		id, err := insertEntry(ctx, tx, &entries[i])
		if err != nil {
			return err
		}
		entries[i].ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *CatalogStore) Update(ctx context.Context, entry *domain.CatalogEntry) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE catalog_keys SET
			name = ?, brand = ?, search_name = ?, match_key = ?, price = ?, with_property_card = ?,
			price_without_card = ?, image_url = ?, blank_reference = ?, reproduction_type = ?,
			number_description = ?, product_description = ?, is_master_key = ?, master_key_price = ?,
			needs_photo = ?, needs_key_number = ?, needs_card_number = ?, file_fee = ?
		WHERE id = ?
	`, append(entryArgs(entry), entry.ID)...)
	if err != nil {
		return fmt.Errorf("update catalog key: %w", mapWriteError(err, entry.Name))
	}
	return requireAffected(res, entry.Name)
}

func (s *CatalogStore) Delete(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM catalog_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete catalog key: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("id %d", id))
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertEntry(ctx context.Context, db execer, entry *domain.CatalogEntry) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO catalog_keys (
			name, brand, search_name, match_key, price, with_property_card,
			price_without_card, image_url, blank_reference, reproduction_type,
			number_description, product_description, is_master_key, master_key_price,
			needs_photo, needs_key_number, needs_card_number, file_fee
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entryArgs(entry)...)
	if err != nil {
		return 0, fmt.Errorf("insert catalog key: %w", mapWriteError(err, entry.Name))
	}
	return res.LastInsertId()
}

func entryArgs(e *domain.CatalogEntry) []any {
	return []any{
		e.Name, e.Brand, textnorm.Loose(e.Name), textnorm.Key(e.Name), e.Price, e.WithPropertyCard,
		e.PriceWithoutCard, e.ImageURL, e.BlankReference, string(e.ReproductionType),
		e.NumberDescription, e.ProductDescription, e.IsMasterKey, e.MasterKeyPrice,
		e.NeedsPhoto, e.NeedsKeyNumber, e.NeedsCardNumber, e.FileFee,
	}
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrKeyNotFound, what)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.CatalogEntry, error) {
	var (
		e              domain.CatalogEntry
		blankRef       sql.NullString
		reproduction   string
		masterKeyPrice sql.NullFloat64
	)

	if err := row.Scan(
		&e.ID, &e.Name, &e.Brand, &e.Price, &e.WithPropertyCard, &e.PriceWithoutCard, &e.ImageURL,
		&blankRef, &reproduction, &e.NumberDescription, &e.ProductDescription,
		&e.IsMasterKey, &masterKeyPrice, &e.NeedsPhoto, &e.NeedsKeyNumber, &e.NeedsCardNumber, &e.FileFee,
	); err != nil {
		return e, err
	}

	e.ReproductionType = domain.ReproductionType(reproduction)
	if blankRef.Valid {
		e.BlankReference = &blankRef.String
	}
	if masterKeyPrice.Valid {
		e.MasterKeyPrice = &masterKeyPrice.Float64
	}
	return e, nil
}

func (s *CatalogStore) query(ctx context.Context, sqlStr string, args ...any) ([]domain.CatalogEntry, error) {
	rows, err := s.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog query: %w", err)
	}
	defer rows.Close()

	out := []domain.CatalogEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (s *CatalogStore) queryOne(ctx context.Context, sqlStr string, args ...any) (*domain.CatalogEntry, error) {
	e, err := scanEntry(s.DB.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog scan: %w", err)
	}
	return &e, nil
}

// buildCatalogSQL builds either COUNT(*) or the paged SELECT for q
func buildCatalogSQL(q domain.CatalogQuery, countOnly bool) (string, []any) {
	sqlStr := `SELECT ` + catalogColumns + ` FROM catalog_keys`
	if countOnly {
		sqlStr = `SELECT COUNT(*) FROM catalog_keys`
	}

	var args []any
	if brand := strings.TrimSpace(q.Brand); brand != "" {
		sqlStr += ` WHERE brand = ? COLLATE NOCASE`
		args = append(args, brand)
	}

	if !countOnly {
		sqlStr += " ORDER BY id"
		// sqlite needs a LIMIT before OFFSET; -1 means unbounded
		limit := q.Limit
		if limit <= 0 {
			limit = -1
		}
		sqlStr += " LIMIT ? OFFSET ?"
		args = append(args, limit, max(q.Offset, 0))
	}

	return sqlStr, args
}

// escapeLike escapes LIKE wildcards so text matches literally
func escapeLike(text string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(text)
}
