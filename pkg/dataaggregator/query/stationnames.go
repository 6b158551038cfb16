package query

type StationNames struct {
	Signatures []string
}

// Stations asks for full station records. No signatures means every station.
type Stations struct {
	Signatures []string
}
