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

/*
Package refcache manages the on-disk reference data: the airport
catalog, the satellite TLE and transponder tables, and the repeater
directory. Each file is downloaded to a temp file and renamed into
place, so readers never observe a partial write. A yaml sidecar per
file records when and from where it was last refreshed; staleness
decisions are made against the sidecar, not file mtimes.
*/
package refcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Default download locations.
const (
	StationsURL    = "https://www.aviationweather.gov/docs/metar/stations.txt"
	TLEURL         = "https://www.celestrak.com/NORAD/elements/amateur.txt"
	FrequenciesURL = "http://www.ne.jp/asahi/hamradio/je9pel/satslist.csv"
	RepeatersURL   = "https://www.repeatermap.de/api.php"
)

// File names under the data directory.
const (
	stationsFile    = "stations.txt"
	tleFile         = "amateur.tle"
	frequenciesFile = "satfreq.csv"
	repeatersFile   = "repeatermap.json"
)

// sidecar is the refresh metadata stored next to each data file.
type sidecar struct {
	Refreshed time.Time `yaml:"refreshed"`
	Source    string    `yaml:"source"`
}

// Store owns the data directory and the parsed indexes.
type Store struct {
	dir    string
	client *http.Client

	mu        sync.RWMutex
	airports  *AirportIndex
	sats      *SatIndex
	repeaters *RepeaterIndex
}

// NewStore creates a Store over dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{
		dir:    dir,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Airports returns the current airport index (possibly nil before the
// first load).
func (s *Store) Airports() *AirportIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.airports
}

// Satellites returns the current satellite index.
func (s *Store) Satellites() *SatIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sats
}

// Repeaters returns the current repeater index.
func (s *Store) Repeaters() *RepeaterIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repeaters
}

// Load parses whatever data files already exist on disk. Missing files
// are not an error; the corresponding index stays nil until the first
// refresh.
func (s *Store) Load() error {
	if f, err := os.Open(filepath.Join(s.dir, stationsFile)); err == nil {
		idx, err := ParseStations(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parsing %s: %w", stationsFile, err)
		}
		s.mu.Lock()
		s.airports = idx
		s.mu.Unlock()
	}
	if f, err := os.Open(filepath.Join(s.dir, tleFile)); err == nil {
		idx, err := ParseTLE(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parsing %s: %w", tleFile, err)
		}
		if ff, err := os.Open(filepath.Join(s.dir, frequenciesFile)); err == nil {
			err = idx.LoadFrequencies(ff)
			ff.Close()
			if err != nil {
				return fmt.Errorf("parsing %s: %w", frequenciesFile, err)
			}
		}
		s.mu.Lock()
		s.sats = idx
		s.mu.Unlock()
	}
	if f, err := os.Open(filepath.Join(s.dir, repeatersFile)); err == nil {
		idx, err := ParseRepeaters(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parsing %s: %w", repeatersFile, err)
		}
		s.mu.Lock()
		s.repeaters = idx
		s.mu.Unlock()
	}
	return nil
}

// LastRefresh returns the sidecar timestamp for a data file, zero when
// the file was never refreshed.
func (s *Store) LastRefresh(name string) time.Time {
	var sc sidecar
	raw, err := os.ReadFile(s.sidecarPath(name))
	if err != nil {
		return time.Time{}
	}
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return time.Time{}
	}
	return sc.Refreshed
}

// AirportsStale reports whether the airport catalog is older than
// maxAge; same contract for the satellite and repeater variants.
func (s *Store) AirportsStale(maxAge time.Duration) bool {
	return time.Since(s.LastRefresh(stationsFile)) > maxAge
}

// SatellitesStale reports staleness of the TLE data.
func (s *Store) SatellitesStale(maxAge time.Duration) bool {
	return time.Since(s.LastRefresh(tleFile)) > maxAge
}

// RepeatersStale reports staleness of the repeater directory.
func (s *Store) RepeatersStale(maxAge time.Duration) bool {
	return time.Since(s.LastRefresh(repeatersFile)) > maxAge
}

// RefreshAirports downloads and swaps in the airport catalog.
func (s *Store) RefreshAirports(ctx context.Context, url string) error {
	if err := s.download(ctx, url, stationsFile); err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(s.dir, stationsFile))
	if err != nil {
		return err
	}
	defer f.Close()
	idx, err := ParseStations(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.airports = idx
	s.mu.Unlock()
	log.Infof("airport catalog refreshed, %d entries", idx.Len())
	return nil
}

// RefreshSatellites downloads the TLE file and the transponder table
// and swaps in the combined index. A failed transponder download is
// logged but does not fail the refresh; the previous file stays in
// place. freqURL may be empty to skip the transponder fetch.
func (s *Store) RefreshSatellites(ctx context.Context, tleURL, freqURL string) error {
	if err := s.download(ctx, tleURL, tleFile); err != nil {
		return err
	}
	if freqURL != "" {
		if err := s.download(ctx, freqURL, frequenciesFile); err != nil {
			log.Warnf("transponder table refresh failed, keeping previous data: %v", err)
		}
	}

	f, err := os.Open(filepath.Join(s.dir, tleFile))
	if err != nil {
		return err
	}
	idx, err := ParseTLE(f)
	f.Close()
	if err != nil {
		return err
	}
	if ff, err := os.Open(filepath.Join(s.dir, frequenciesFile)); err == nil {
		err = idx.LoadFrequencies(ff)
		ff.Close()
		if err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.sats = idx
	s.mu.Unlock()
	log.Infof("satellite data refreshed, %d entries", idx.Len())
	return nil
}

// RefreshRepeaters downloads and swaps in the repeater directory.
func (s *Store) RefreshRepeaters(ctx context.Context, url string) error {
	if err := s.download(ctx, url, repeatersFile); err != nil {
		return err
	}
	f, err := os.Open(filepath.Join(s.dir, repeatersFile))
	if err != nil {
		return err
	}
	defer f.Close()
	idx, err := ParseRepeaters(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.repeaters = idx
	s.mu.Unlock()
	log.Infof("repeater directory refreshed, %d entries", idx.Len())
	return nil
}

// download fetches url into the data dir under name. The body lands in
// a temp file first and is renamed over the target only on success.
func (s *Store) download(ctx context.Context, url, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return err
	}
	return s.writeSidecar(name, url)
}

func (s *Store) writeSidecar(name, source string) error {
	raw, err := yaml.Marshal(&sidecar{Refreshed: time.Now().UTC(), Source: source})
	if err != nil {
		return err
	}
	return os.WriteFile(s.sidecarPath(name), raw, 0644)
}

func (s *Store) sidecarPath(name string) string {
	return filepath.Join(s.dir, strings.TrimSuffix(name, filepath.Ext(name))+".meta.yaml")
}
