package messages

import "github.com/Veraticus/inbox-triage/internal/model"

// Expectation pairs a fixture message with the category the default
// registry and settings assign to it.
type Expectation struct {
	Category string
	Message  model.Message
}

// MixedInbox returns one message per pipeline outcome for the mailbox owner
// user: an absolute task, an invoice, a newsletter, a CC copy, an
// unclassifiable note and a message in the junk folder.
func MixedInbox(user string) []Expectation {
	return []Expectation{
		{Category: model.CategoryTasks, Message: New("1").From("a@b.com").Subject("Action requise: validation").To(user).Build()},
		{Category: model.CategoryFinance, Message: New("2").From("billing@shop.example").Subject("Votre facture de mars").Build()},
		{Category: model.CategoryNewsletters, Message: New("3").Subject("Weekly digest").Text("Click here to unsubscribe").Build()},
		{Category: model.CategoryCC, Message: New("4").Subject("Invitation à une réunion").CC(user).Build()},
		{Category: model.CategoryOther, Message: New("5").Subject("Bonjour").Text("Comment vas-tu ?").Build()},
		{Category: model.OutcomeSpam, Message: New("6").Subject("Gagnez un iPhone").Folder("JunkEmail").Build()},
	}
}

// Messages extracts the messages of a fixture in order.
func Messages(fixture []Expectation) []model.Message {
	out := make([]model.Message, len(fixture))
	for i, e := range fixture {
		out[i] = e.Message
	}
	return out
}

// Categories extracts the expected categories of a fixture in order.
func Categories(fixture []Expectation) []string {
	out := make([]string, len(fixture))
	for i, e := range fixture {
		out[i] = e.Category
	}
	return out
}
