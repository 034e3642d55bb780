package catalog

import (
	"fmt"

	"github.com/spf13/viper"

	contractx "github.com/tanpawarit/chative-food-order/agent/contract"
)

type fileCatalog struct {
	Tenants []fileTenant `mapstructure:"tenants"`
}

type fileTenant struct {
	Key        string     `mapstructure:"key"`
	AIName     string     `mapstructure:"ai_name"`
	OutletName string     `mapstructure:"outlet_name"`
	Keyterms   []string   `mapstructure:"keyterms"`
	Menu       []fileItem `mapstructure:"menu"`
}

type fileItem struct {
	ID          string   `mapstructure:"id"`
	Name        string   `mapstructure:"name"`
	Category    string   `mapstructure:"category"`
	Price       string   `mapstructure:"price"`
	Available   *bool    `mapstructure:"available"`
	Tags        []string `mapstructure:"tags"`
	Description string   `mapstructure:"description"`
}

// LoadFile reads a yaml, json or toml catalog fixture into a MemoryStore.
func LoadFile(path string) (*MemoryStore, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}
	var raw fileCatalog
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog file %s: %w", path, err)
	}

	store := NewMemoryStore()
	for _, ft := range raw.Tenants {
		items := make([]Item, 0, len(ft.Menu))
		for _, fi := range ft.Menu {
			price, err := contractx.ParseMoney(fi.Price)
			if err != nil {
				return nil, fmt.Errorf("tenant %s item %s: %w", ft.Key, fi.ID, err)
			}
			items = append(items, Item{
				ID:          fi.ID,
				Name:        fi.Name,
				Category:    fi.Category,
				Price:       price,
				Available:   fi.Available == nil || *fi.Available,
				Tags:        fi.Tags,
				Description: fi.Description,
			})
		}
		t, err := NewTenant(ft.Key, Meta{AIName: ft.AIName, OutletName: ft.OutletName, Keyterms: ft.Keyterms}, items)
		if err != nil {
			return nil, err
		}
		store.Put(t)
	}
	return store, nil
}
