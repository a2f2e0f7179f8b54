/*
Copyright (c) the aprsbot authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package refcache

import "strings"

// DefaultOsmCategories is the Nominatim special-phrase subset accepted
// as bare keywords.
var DefaultOsmCategories = []string{
	"aerodrome", "atm", "bakery", "bank", "butcher", "cafe", "camp_site",
	"car_rental", "car_repair", "charging_station", "chemist", "cinema",
	"clinic", "college", "dentist", "doctor", "drinking_water", "fast_food",
	"fire_station", "fuel", "hairdresser", "hospital", "hostel", "hotel",
	"information", "laundry", "library", "mall", "motel", "pharmacy",
	"police", "post_box", "post_office", "pub", "railway_station",
	"restaurant", "school", "supermarket", "taxi", "theatre", "townhall",
	"university",
}

// Catalog adapts a Store plus an OSM allow-list to the token validation
// interface the parser consumes. The zero Store indexes simply answer
// "unknown", so parsing stays functional before the first refresh.
type Catalog struct {
	store *Store
	osm   map[string]struct{}
}

// NewCatalog wraps a store. An empty categories list picks the default
// allow-list.
func NewCatalog(store *Store, categories []string) *Catalog {
	if len(categories) == 0 {
		categories = DefaultOsmCategories
	}
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[strings.ToLower(c)] = struct{}{}
	}
	return &Catalog{store: store, osm: set}
}

// ValidICAO reports whether the catalog knows the airport code.
func (c *Catalog) ValidICAO(code string) bool {
	return c.store.Airports().ByICAO(code) != nil
}

// ValidIATA reports whether the catalog knows the airport code.
func (c *Catalog) ValidIATA(code string) bool {
	return c.store.Airports().ByIATA(code) != nil
}

// ValidSatellite reports whether the TLE data covers the satellite.
func (c *Catalog) ValidSatellite(name string) bool {
	return c.store.Satellites().ByName(name) != nil
}

// OsmCategory reports whether the word is an accepted special phrase.
func (c *Catalog) OsmCategory(word string) bool {
	_, ok := c.osm[strings.ToLower(word)]
	return ok
}
