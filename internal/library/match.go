package library

import "strings"

// MatchPhone reports whether the issue was made to the given phone number.
// The comparison is exact apart from case and surrounding space.
func MatchPhone(issue Issue, phone string) bool {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(string(issue.PhoneNo)), phone)
}

// BookHaystack is the text searched by the catalog filter.
func BookHaystack(b Book) string {
	return strings.Join([]string{
		string(b.AccessionNo), string(b.Title), string(b.Author), string(b.ClassNo),
	}, " ")
}

// TransactionHaystack is the text searched in the transaction history.
func TransactionHaystack(i Issue) string {
	return string(i.Title) + " " + string(i.StudentName)
}

// PendingHaystack is the text searched in the due and pending list.
func PendingHaystack(i Issue) string {
	return strings.Join([]string{
		string(i.Title), string(i.StudentName), string(i.PhoneNo), string(i.AccessionNo),
	}, " ")
}

// AdminHaystack is the text searched in the admin list.
func AdminHaystack(a Admin) string { return string(a.Username) }

// BookKey identifies a book within a collection.
func BookKey(b Book) ID { return b.ID }

// IssueKey identifies an issue within a collection.
func IssueKey(i Issue) ID { return i.IssueID }

// AdminKey identifies an admin within a collection.
func AdminKey(a Admin) ID { return a.UserID }

// FindByAccession returns the book with the given accession number.
func FindByAccession(books []Book, accession string) (Book, bool) {
	accession = strings.TrimSpace(accession)
	for _, b := range books {
		if strings.EqualFold(strings.TrimSpace(string(b.AccessionNo)), accession) {
			return b, true
		}
	}
	return Book{}, false
}
