package stations

// Store holds the ordered station list plus the set of default station URLs
// the user has intentionally removed. Removing a station whose URL matches a
// built-in default records that URL so AddMissingDefaults does not bring it
// back; ResetToDefaults clears the record.
//
// Store is not safe for concurrent use. The tuner serializes all access
// through its event queue.
type Store struct {
	stations        []Station
	deletedDefaults map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		deletedDefaults: make(map[string]struct{}),
	}
}

// Stations returns a copy of the station list in display order.
func (s *Store) Stations() []Station {
	out := make([]Station, len(s.stations))
	copy(out, s.stations)
	return out
}

// Get returns the station with the given ID.
func (s *Store) Get(id string) (Station, bool) {
	for _, st := range s.stations {
		if st.ID == id {
			return st, true
		}
	}
	return Station{}, false
}

// Add appends a station to the end of the list.
func (s *Store) Add(st Station) {
	s.stations = append(s.stations, st)
}

// Update replaces the station sharing the same ID, preserving its position.
func (s *Store) Update(st Station) bool {
	for i := range s.stations {
		if s.stations[i].ID == st.ID {
			s.stations[i] = st
			return true
		}
	}
	return false
}

// Remove deletes the station with the given ID. If its URL matches a
// built-in default, the URL is recorded so the default stays gone.
func (s *Store) Remove(id string) (Station, bool) {
	for i, st := range s.stations {
		if st.ID != id {
			continue
		}
		s.stations = append(s.stations[:i], s.stations[i+1:]...)
		if isDefaultURL(st.URL) {
			s.deletedDefaults[st.URL] = struct{}{}
		}
		return st, true
	}
	return Station{}, false
}

// ResetToDefaults clears the deleted-defaults record and replaces the whole
// list with the built-ins.
func (s *Store) ResetToDefaults() {
	s.deletedDefaults = make(map[string]struct{})
	s.stations = Defaults()
}

// AddMissingDefaults appends each built-in station that is neither already
// present by URL nor recorded as deleted. It returns the number added and is
// idempotent.
func (s *Store) AddMissingDefaults() int {
	present := make(map[string]struct{}, len(s.stations))
	for _, st := range s.stations {
		present[st.URL] = struct{}{}
	}

	added := 0
	for _, def := range Defaults() {
		if _, ok := present[def.URL]; ok {
			continue
		}
		if _, ok := s.deletedDefaults[def.URL]; ok {
			continue
		}
		s.stations = append(s.stations, def)
		added++
	}
	return added
}

// Replace swaps in a loaded station list.
func (s *Store) Replace(list []Station) {
	s.stations = make([]Station, len(list))
	copy(s.stations, list)
}

// DeletedDefaults returns the recorded deleted default URLs.
func (s *Store) DeletedDefaults() []string {
	out := make([]string, 0, len(s.deletedDefaults))
	for url := range s.deletedDefaults {
		out = append(out, url)
	}
	return out
}

// SetDeletedDefaults swaps in a loaded deleted-defaults set.
func (s *Store) SetDeletedDefaults(urls []string) {
	s.deletedDefaults = make(map[string]struct{}, len(urls))
	for _, url := range urls {
		s.deletedDefaults[url] = struct{}{}
	}
}

func isDefaultURL(url string) bool {
	for _, def := range Defaults() {
		if def.URL == url {
			return true
		}
	}
	return false
}
