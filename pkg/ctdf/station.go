package ctdf

type Station struct {
	Signature string `groups:"basic" csv:"signature"`
	Name      string `groups:"basic" csv:"name"`

	Location *Location `groups:"detailed" csv:"-"`
}
