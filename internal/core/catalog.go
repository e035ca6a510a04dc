package core

// Asset is one revenue-generating unit offered in the entry form.
type Asset struct {
	Type  AssetType `json:"type"`
	Name  string    `json:"name"`
	Plate string    `json:"plate,omitempty"`
}

// Catalog lists the known assets. Transactions may still name assets that
// are not in it.
type Catalog struct {
	Cars       []Asset `json:"cars"`
	Speedboats []Asset `json:"speedboats"`
}

// DefaultCatalog returns the fleet the business started with.
func DefaultCatalog() Catalog {
	car := func(name, plate string) Asset { return Asset{Type: AssetCar, Name: name, Plate: plate} }
	boat := func(name string) Asset { return Asset{Type: AssetSpeedboat, Name: name} }
	return Catalog{
		Cars: []Asset{
			car("Veloz 2021", "B 2622 POI"),
			car("Veloz 2019", "DR 1019 KG"),
			car("Avanza 2023", "Z 1494 TQ"),
			car("Avanza 2022", "B 2206 POT"),
			car("Avanza 2018", "AB 1375 KJ"),
			car("Avanza 2019", "B 2191 TIH"),
			car("Avanza 2023", "D 1217 UBM"),
		},
		Speedboats: []Asset{
			boat("Speed Boat Broo Meet"),
			boat("Speed Boat Bintang Laut"),
			boat("Speed Boat BJT 01"),
			boat("Speed Boat Speedy91"),
		},
	}
}

// Find returns the catalog entry with the given type and name.
func (c Catalog) Find(t AssetType, name string) (Asset, bool) {
	var list []Asset
	switch t {
	case AssetCar:
		list = c.Cars
	case AssetSpeedboat:
		list = c.Speedboats
	}
	for _, a := range list {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// All returns cars followed by speedboats.
func (c Catalog) All() []Asset {
	out := make([]Asset, 0, len(c.Cars)+len(c.Speedboats))
	out = append(out, c.Cars...)
	return append(out, c.Speedboats...)
}

// CatalogOf groups assets by type, keeping their order. Restaurants are
// not listed.
func CatalogOf(assets []Asset) Catalog {
	c := Catalog{Cars: []Asset{}, Speedboats: []Asset{}}
	for _, a := range assets {
		switch a.Type {
		case AssetCar:
			c.Cars = append(c.Cars, a)
		case AssetSpeedboat:
			c.Speedboats = append(c.Speedboats, a)
		}
	}
	return c
}

// Key identifies an asset for deduplication.
func (a Asset) Key() string {
	return string(a.Type) + "|" + a.Name + "|" + a.Plate
}
