package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

// tenantDocument mirrors TENANT_INFO documents.
type tenantDocument struct {
	TenantKey string `bson:"tenant_key"`
	Context   struct {
		MetaData struct {
			AIName     string `bson:"ai_name"`
			OutletName string `bson:"outlet_name"`
		} `bson:"meta_data"`
		Menu     []menuDocument `bson:"menu"`
		Keyterms []string       `bson:"keyterms"`
	} `bson:"context"`
}

// Menu ids and prices have been stored as strings and as numbers.
type menuDocument struct {
	MenuID      any      `bson:"menu_id"`
	ID          any      `bson:"id,omitempty"`
	Name        string   `bson:"name"`
	ItemName    string   `bson:"item_name,omitempty"`
	Category    string   `bson:"category"`
	Price       any      `bson:"price"`
	IsVeg       *bool    `bson:"is_veg,omitempty"`
	Available   *bool    `bson:"available,omitempty"`
	Tags        []string `bson:"tags,omitempty"`
	Description string   `bson:"description,omitempty"`
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Tenant(ctx context.Context, key string) (*Tenant, error) {
	var doc tenantDocument
	err := s.coll.FindOne(ctx, bson.M{"tenant_key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, unknownTenant(key)
	}
	if err != nil {
		return nil, fmt.Errorf("find tenant %s: %w", key, err)
	}
	return doc.toTenant()
}

func (d tenantDocument) toTenant() (*Tenant, error) {
	items := make([]Item, 0, len(d.Context.Menu))
	for i, m := range d.Context.Menu {
		item, err := m.toItem()
		if err != nil {
			return nil, fmt.Errorf("tenant %s menu[%d]: %w", d.TenantKey, i, err)
		}
		items = append(items, item)
	}
	return NewTenant(d.TenantKey, Meta{
		AIName:     d.Context.MetaData.AIName,
		OutletName: d.Context.MetaData.OutletName,
		Keyterms:   d.Context.Keyterms,
	}, items)
}

func (m menuDocument) toItem() (Item, error) {
	id := scalarString(m.MenuID)
	if id == "" {
		id = scalarString(m.ID)
	}
	name := m.Name
	if name == "" {
		name = m.ItemName
	}
	price, err := bsonMoney(m.Price)
	if err != nil {
		return Item{}, err
	}
	tags := append([]string(nil), m.Tags...)
	if m.IsVeg != nil {
		if *m.IsVeg {
			tags = append(tags, "veg")
		} else {
			tags = append(tags, "non-veg")
		}
	}
	return Item{
		ID:          id,
		Name:        name,
		Category:    m.Category,
		Price:       price,
		Available:   m.Available == nil || *m.Available,
		Tags:        tags,
		Description: m.Description,
	}, nil
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case primitive.ObjectID:
		return x.Hex()
	default:
		return fmt.Sprint(x)
	}
}

func bsonMoney(v any) (contractx.Money, error) {
	switch x := v.(type) {
	case int32:
		return contractx.MoneyFromFloat(float64(x))
	case int64:
		return contractx.MoneyFromFloat(float64(x))
	case float64:
		return contractx.MoneyFromFloat(x)
	case string:
		return contractx.ParseMoney(x)
	case primitive.Decimal128:
		return contractx.ParseMoney(x.String())
	default:
		return 0, fmt.Errorf("%w: unsupported price %v", contractx.ErrValidation, v)
	}
}
