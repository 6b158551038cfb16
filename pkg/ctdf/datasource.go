package ctdf

type DataSource struct {
	OriginalFormat string `groups:"internal"` // eg. trafikverket-xml
	Provider       string `groups:"internal"`
	DatasetID      string `groups:"internal"`
	Timestamp      string `groups:"internal"`
}
