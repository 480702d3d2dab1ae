package catalog

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Load returns the catalog stored at path, or the built-in table when path is empty.
//
// The file lists products as an array of tables:
//
//	[[item]]
//	id = 1
//	name = "Herbal Tonic"
//	description = "Immunity booster tonic - 200ml"
//	unit_price = 150
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("catalog file: %w", err)
	}

	var file struct {
		Item []Item `toml:"item"`
	}
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: %s: unknown keys %v", ErrInvalidTOML, path, undecoded)
	}
	if len(file.Item) == 0 {
		return nil, fmt.Errorf("%w: %s defines no items", ErrInvalidItem, path)
	}

	return NewTable(file.Item)
}
