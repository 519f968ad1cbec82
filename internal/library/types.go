package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a remote record. The API is inconsistent about sending
// identifiers as JSON numbers or strings; both decode to the same value.
type ID string

// String returns the identifier text.
func (id ID) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool { return strings.TrimSpace(string(id)) == "" }

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	text, err := decodeScalar(data)
	if err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(text)
	return nil
}

// MarshalJSON writes identifiers that are canonical integers ("12", not
// "007") as JSON numbers, matching the server's integer keys. Anything
// else, leading zeros included, is written as a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if isCanonicalInt(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// maxNumericID keeps numeric ids inside the range a JSON number holds
// exactly.
const maxNumericID = 15

func isCanonicalInt(s string) bool {
	if !isDigits(s) || len(s) > maxNumericID {
		return false
	}
	return s == "0" || s[0] != '0'
}

// Text is a free-form record field. Columns such as year, price and page
// count arrive as strings or numbers depending on the row.
type Text string

// UnmarshalJSON accepts numbers, strings, booleans and null.
func (t *Text) UnmarshalJSON(data []byte) error {
	text, err := decodeScalar(data)
	if err != nil {
		return err
	}
	*t = Text(text)
	return nil
}

func (t Text) String() string { return string(t) }

func decodeScalar(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String(), nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return fmt.Sprintf("%t", b), nil
	}
	return "", fmt.Errorf("unsupported value %s", string(data))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Book is a catalog entry.
type Book struct {
	ID             ID   `json:"id,omitempty"`
	AccessionNo    Text `json:"accession_no"`
	ClassNo        Text `json:"class_no"`
	Title          Text `json:"title_of_the_book"`
	Author         Text `json:"name_of_the_author"`
	VolumeNo       Text `json:"volume_no"`
	Year           Text `json:"year"`
	Place          Text `json:"place"`
	Price          Text `json:"price"`
	ISBN           Text `json:"isbn_issn_no"`
	Language       Text `json:"language"`
	SubjectHeading Text `json:"subject_heading"`
	Pages          Text `json:"no_of_pages_contain"`
	Source         Text `json:"source"`
	AddedOn        Text `json:"added_on,omitempty"`
}

// Validate checks the fields the catalog requires before a book is saved.
func (b Book) Validate() error {
	var missing []string
	if strings.TrimSpace(string(b.AccessionNo)) == "" {
		missing = append(missing, "accession number")
	}
	if strings.TrimSpace(string(b.Title)) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(string(b.Author)) == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Issue statuses as reported by the API.
const (
	StatusPending  = "Pending"
	StatusReturned = "Returned"
)

// Issue is a loan record. Book fields are copied onto the issue when it is
// created so the record survives later catalog edits.
type Issue struct {
	IssueID     ID   `json:"issue_id,omitempty"`
	StudentName Text `json:"student_name"`
	PhoneNo     Text `json:"phone_no"`
	Parental    Text `json:"parental"`
	Remark      Text `json:"remark"`
	IssuedOn    Text `json:"issued_on"`
	Status      Text `json:"status"`

	AccessionNo    Text `json:"accession_no"`
	ClassNo        Text `json:"class_no,omitempty"`
	Title          Text `json:"title_of_the_book"`
	Author         Text `json:"name_of_the_author"`
	VolumeNo       Text `json:"volume_no,omitempty"`
	Year           Text `json:"year,omitempty"`
	Place          Text `json:"place,omitempty"`
	Price          Text `json:"price,omitempty"`
	ISBN           Text `json:"isbn_issn_no,omitempty"`
	Language       Text `json:"language,omitempty"`
	SubjectHeading Text `json:"subject_heading,omitempty"`
	Pages          Text `json:"no_of_pages_contain,omitempty"`
	Source         Text `json:"source,omitempty"`
}

// IsPending reports whether the book is still out.
func (i Issue) IsPending() bool {
	return strings.EqualFold(strings.TrimSpace(string(i.Status)), StatusPending)
}

// IsReturned reports whether the book has come back.
func (i Issue) IsReturned() bool {
	return strings.EqualFold(strings.TrimSpace(string(i.Status)), StatusReturned)
}

// NewIssue builds a pending issue for book, copying its catalog fields.
func NewIssue(book Book, student, phone string) Issue {
	return Issue{
		StudentName:    Text(strings.TrimSpace(student)),
		PhoneNo:        Text(strings.TrimSpace(phone)),
		Status:         "pending",
		AccessionNo:    book.AccessionNo,
		ClassNo:        book.ClassNo,
		Title:          book.Title,
		Author:         book.Author,
		VolumeNo:       book.VolumeNo,
		Year:           book.Year,
		Place:          book.Place,
		Price:          book.Price,
		ISBN:           book.ISBN,
		Language:       book.Language,
		SubjectHeading: book.SubjectHeading,
		Pages:          book.Pages,
		Source:         book.Source,
	}
}

// Validate checks the fields required to issue a book.
func (i Issue) Validate() error {
	var missing []string
	if strings.TrimSpace(string(i.AccessionNo)) == "" {
		missing = append(missing, "accession number")
	}
	if strings.TrimSpace(string(i.StudentName)) == "" {
		missing = append(missing, "student name")
	}
	if strings.TrimSpace(string(i.PhoneNo)) == "" {
		missing = append(missing, "phone number")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Admin is an administrator account. Passwords are write-only.
type Admin struct {
	UserID   ID     `json:"user_id"`
	Username Text   `json:"username"`
	Password string `json:"password,omitempty"`
}

// IssuedCount is the number of times a book has been issued.
type IssuedCount struct {
	AccessionNo Text  `json:"accession_no"`
	Count       Count `json:"issued_count"`
}

// Count is a non-negative tally that may be sent as a number or a string.
type Count int

// UnmarshalJSON accepts numbers, numeric strings and null.
func (c *Count) UnmarshalJSON(data []byte) error {
	text, err := decodeScalar(data)
	if err != nil {
		return err
	}
	if text == "" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("decode count %q: %w", text, err)
	}
	*c = Count(f)
	return nil
}

// ValidationError lists required fields that were left empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "required: " + strings.Join(e.Fields, ", ")
}
