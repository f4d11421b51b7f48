package viewmodel

import (
	"strconv"

	"github.com/paideia-dao/paideia-site/internal/accordion"
	"github.com/paideia-dao/paideia-site/internal/resource"
)

type FAQView struct {
	PanelID  accordion.PanelID
	Question string
	// Answer is markdown, rendered by the presentation layer.
	Answer string
}

// BuildFaqView keeps source order, drops records missing a question or an
// answer and numbers the remaining panels panel0, panel1, ...
func BuildFaqView(list []resource.FAQEntry) []FAQView {
	views := make([]FAQView, 0, len(list))
	for _, entry := range list {
		if !resource.Valid(entry) {
			continue
		}
		views = append(views, FAQView{
			PanelID:  accordion.PanelID("panel" + strconv.Itoa(len(views))),
			Question: entry.Question,
			Answer:   entry.Answer,
		})
	}
	return views
}

// PanelIDs lists the panel ids of views in order.
func PanelIDs(views []FAQView) []accordion.PanelID {
	ids := make([]accordion.PanelID, len(views))
	for i, v := range views {
		ids[i] = v.PanelID
	}
	return ids
}
