package movies

import "github.com/five82/marquee/internal/api"

// Direction is the sort_value sent to the API.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Arrow is the indicator drawn next to the active column title.
func (d Direction) Arrow() string {
	if d == Descending {
		return "▼"
	}
	return "▲"
}

// Column describes one table column.
type Column struct {
	Key      string
	Title    string
	Width    int
	Sortable   bool // accepted by the server as sort_key
	Searchable bool // accepted by the server as search_key
}

// Columns lists the table columns in display order.
var Columns = []Column{
	{Key: "show_id", Title: "ID", Width: 8, Sortable: true},
	{Key: "type", Title: "Type", Width: 8, Searchable: true},
	{Key: "title", Title: "Title", Width: 28, Searchable: true},
	{Key: "director", Title: "Director", Width: 18, Searchable: true},
	{Key: "cast", Title: "Cast", Width: 24},
	{Key: "country", Title: "Country", Width: 14, Searchable: true},
	{Key: "date_added", Title: "Added", Width: 18, Sortable: true},
	{Key: "release_year", Title: "Year", Width: 6, Sortable: true, Searchable: true},
	{Key: "rating", Title: "Rating", Width: 8},
	{Key: "duration", Title: "Duration", Width: 10, Sortable: true},
	{Key: "listed_in", Title: "Listed In", Width: 22},
	{Key: "description", Title: "Description", Width: 40},
}

// DefaultSortKey is the column the list starts sorted by.
const DefaultSortKey = "show_id"

// DefaultSearchKey is the column searched until another is chosen.
const DefaultSearchKey = "title"

// SearchKeys returns the searchable column keys in display order.
func SearchKeys() []string {
	var keys []string
	for _, c := range Columns {
		if c.Searchable {
			keys = append(keys, c.Key)
		}
	}
	return keys
}

// LookupColumn returns the column with key.
func LookupColumn(key string) (Column, bool) {
	for _, c := range Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// Value renders the column's field for m.
func (c Column) Value(m api.Movie) string {
	switch c.Key {
	case "show_id":
		return m.ShowID.String()
	case "type":
		return m.Type.String()
	case "title":
		return m.Title.String()
	case "director":
		return m.Director.String()
	case "cast":
		return m.Cast.String()
	case "country":
		if v := m.Country.String(); v != "" {
			return v
		}
		return "N/A"
	case "date_added":
		return m.DateAdded.String()
	case "release_year":
		return m.ReleaseYear.String()
	case "rating":
		return m.Rating.String()
	case "duration":
		return m.Duration.String()
	case "listed_in":
		return m.ListedIn.String()
	case "description":
		return m.Description.String()
	}
	return ""
}

// Row renders m in column order.
func Row(m api.Movie) []string {
	row := make([]string, len(Columns))
	for i, c := range Columns {
		row[i] = c.Value(m)
	}
	return row
}
