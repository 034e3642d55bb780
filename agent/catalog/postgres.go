package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

type tenantRow struct {
	bun.BaseModel `bun:"table:tenants"`

	Key        string   `bun:"key,pk"`
	AIName     string   `bun:"ai_name"`
	OutletName string   `bun:"outlet_name"`
	Keyterms   []string `bun:"keyterms,array"`
}

type menuItemRow struct {
	bun.BaseModel `bun:"table:menu_items"`

	TenantKey   string   `bun:"tenant_key,pk"`
	ItemID      string   `bun:"item_id,pk"`
	Name        string   `bun:"name,notnull"`
	Category    string   `bun:"category"`
	PriceMinor  int64    `bun:"price_minor,notnull"`
	Available   bool     `bun:"available,notnull,default:true"`
	Tags        []string `bun:"tags,array"`
	Description string   `bun:"description"`
}

type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateSchema creates the catalog tables when missing.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	for _, model := range []any{(*tenantRow)(nil), (*menuItemRow)(nil)} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create catalog schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Tenant(ctx context.Context, key string) (*Tenant, error) {
	var tr tenantRow
	err := s.db.NewSelect().Model(&tr).Where("key = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, unknownTenant(key)
	}
	if err != nil {
		return nil, fmt.Errorf("select tenant %s: %w", key, err)
	}

	var rows []menuItemRow
	if err := s.db.NewSelect().Model(&rows).Where("tenant_key = ?", key).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select menu for %s: %w", key, err)
	}
	return tr.toTenant(rows)
}

func (tr tenantRow) toTenant(rows []menuItemRow) (*Tenant, error) {
	items := make([]Item, len(rows))
	for i, r := range rows {
		items[i] = Item{
			ID:          r.ItemID,
			Name:        r.Name,
			Category:    r.Category,
			Price:       contractx.Money(r.PriceMinor),
			Available:   r.Available,
			Tags:        r.Tags,
			Description: r.Description,
		}
	}
	return NewTenant(tr.Key, Meta{AIName: tr.AIName, OutletName: tr.OutletName, Keyterms: tr.Keyterms}, items)
}

func upsertTenantQuery(db bun.IDB, tr *tenantRow) *bun.InsertQuery {
	return db.NewInsert().Model(tr).
		On("CONFLICT (key) DO UPDATE").
		Set("ai_name = EXCLUDED.ai_name, outlet_name = EXCLUDED.outlet_name, keyterms = EXCLUDED.keyterms")
}

// Save writes a tenant snapshot in one transaction, replacing its menu.
func (s *PostgresStore) Save(ctx context.Context, t *Tenant) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		tr := &tenantRow{Key: t.Key, AIName: t.AIName, OutletName: t.OutletName, Keyterms: t.Keyterms}
		if _, err := upsertTenantQuery(tx, tr).Exec(ctx); err != nil {
			return fmt.Errorf("upsert tenant %s: %w", t.Key, err)
		}
		if _, err := tx.NewDelete().Model((*menuItemRow)(nil)).Where("tenant_key = ?", t.Key).Exec(ctx); err != nil {
			return fmt.Errorf("clear menu for %s: %w", t.Key, err)
		}
		if t.Len() == 0 {
			return nil
		}
		rows := make([]menuItemRow, 0, t.Len())
		for _, it := range t.Items() {
			rows = append(rows, menuItemRow{
				TenantKey:   t.Key,
				ItemID:      it.ID,
				Name:        it.Name,
				Category:    it.Category,
				PriceMinor:  int64(it.Price),
				Available:   it.Available,
				Tags:        it.Tags,
				Description: it.Description,
			})
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert menu for %s: %w", t.Key, err)
		}
		return nil
	})
}
