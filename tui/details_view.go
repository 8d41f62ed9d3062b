// ABOUTME: Details step: contacts, action items, tags, products to sell, attachments and follow-up
// ABOUTME: PgUp/PgDown switch sections; each add, toggle or removal saves the visit
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/onsite/interview"
	"github.com/harperreed/onsite/models"
)

type detailSection int

const (
	sectionContacts detailSection = iota
	sectionActions
	sectionTags
	sectionOpportunities
	sectionAttachments
	sectionFollowUp
	sectionCount
)

var sectionNames = []string{"Contacts", "Action Items", "Tags", "Products", "Attachments", "Follow-up"}

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

func (m *Model) initDetailForms() {
	m.contactInputs = []textinput.Model{
		newInput("Name", 100),
		newInput("Title", 100),
		newInput("Email", 100),
		newInput("Phone", 30),
	}
	m.actionInputs = []textinput.Model{
		newInput("What needs to happen", 240),
		newInput("Owner", 60),
		newInput("Due (YYYY-MM-DD)", 20),
	}
	m.attachInputs = []textinput.Model{
		newInput("Name", 120),
		newInput("Link", 512),
	}
	m.followInputs = []textinput.Model{
		newInput("Follow-up date (YYYY-MM-DD)", 20),
		newInput("Follow-up notes", 500),
	}
}

func (m *Model) loadDetailForms() {
	if v := m.ws.Active(); v != nil {
		m.followInputs[0].SetValue(v.FollowUpDate)
		m.followInputs[1].SetValue(v.FollowUpNotes)
	}
	m.listCursor = 0
	m.detailFocus = 0
	m.updateDetailFocus()
}

// sectionInputs returns the form of the current section, if it has one.
func (m *Model) sectionInputs() []textinput.Model {
	switch m.section {
	case sectionContacts:
		return m.contactInputs
	case sectionActions:
		return m.actionInputs
	case sectionAttachments:
		return m.attachInputs
	case sectionFollowUp:
		return m.followInputs
	}
	return nil
}

func (m *Model) updateDetailFocus() {
	for _, form := range [][]textinput.Model{m.contactInputs, m.actionInputs, m.attachInputs, m.followInputs} {
		for i := range form {
			form[i].Blur()
		}
	}
	inputs := m.sectionInputs()
	if len(inputs) > 0 {
		m.detailFocus %= len(inputs)
		inputs[m.detailFocus].Focus()
	}
}

// sectionLen is the number of selectable rows in list sections.
func sectionLen(v *models.Visit, s detailSection) int {
	switch s {
	case sectionContacts:
		return len(v.Contacts)
	case sectionActions:
		return len(v.ActionItems)
	case sectionTags:
		return len(models.Tags)
	case sectionOpportunities:
		return len(models.SellingOpportunities)
	case sectionAttachments:
		return len(v.Attachments)
	}
	return 0
}

func (m Model) renderDetailsView() string {
	var s strings.Builder
	v := m.ws.Active()
	if v == nil {
		return messageStyle.Render("No active visit")
	}

	var tabs []string
	for i, name := range sectionNames {
		if detailSection(i) == m.section {
			tabs = append(tabs, tabActiveStyle.Render(name))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(name))
		}
	}
	s.WriteString(strings.Join(tabs, ""))
	s.WriteString("\n\n")

	var rows []string
	switch m.section {
	case sectionContacts:
		for _, c := range v.Contacts {
			line := c.Name
			if c.Title != "" {
				line += " (" + c.Title + ")"
			}
			if c.IsChampion {
				line += " ⭐ Champion"
			}
			if c.Email != "" || c.Phone != "" {
				line += "  " + messageStyle.Render(strings.Trim(c.Email+" | "+c.Phone, " |"))
			}
			rows = append(rows, line)
		}
	case sectionActions:
		for _, a := range v.ActionItems {
			box := "[ ]"
			if a.Completed {
				box = "[x]"
			}
			line := box + " " + a.Description
			if a.Owner != "" || a.DueDate != "" {
				line += messageStyle.Render(fmt.Sprintf("  owner: %s  due: %s", orDash(a.Owner), orDash(a.DueDate)))
			}
			rows = append(rows, line)
		}
	case sectionTags:
		for _, t := range models.Tags {
			rows = append(rows, checkbox(v.HasTag(t))+" "+t.Label())
		}
	case sectionOpportunities:
		for _, o := range models.SellingOpportunities {
			info := o.Info()
			rows = append(rows, checkbox(v.HasOpportunity(o))+" "+info.Label+messageStyle.Render("  "+info.Description))
		}
	case sectionAttachments:
		for _, a := range v.Attachments {
			line := a.Name
			if a.URL != "" {
				line += "  " + messageStyle.Render(a.URL)
			}
			rows = append(rows, line)
		}
	}

	if m.section != sectionFollowUp && len(rows) == 0 {
		s.WriteString(messageStyle.Render("Nothing added yet"))
		s.WriteString("\n")
	}
	for i, row := range rows {
		if i == m.listCursor {
			s.WriteString("▶ " + selectedStyle.Render(row))
		} else {
			s.WriteString("  " + row)
		}
		s.WriteString("\n")
	}

	if inputs := m.sectionInputs(); len(inputs) > 0 {
		s.WriteString("\n")
		for i, input := range inputs {
			if i == m.detailFocus {
				s.WriteString("> ")
			} else {
				s.WriteString("  ")
			}
			s.WriteString(input.View())
			s.WriteString("\n")
		}
	}

	s.WriteString(renderHelp(m.detailHelp()...))
	return s.String()
}

func (m Model) detailHelp() []string {
	help := []string{"PgUp/PgDn: Section"}
	switch m.section {
	case sectionContacts:
		help = append(help, "Tab: Field", "Enter: Add", "↑/↓: Select", "ctrl+k: Champion", "ctrl+d: Remove")
	case sectionActions:
		help = append(help, "Tab: Field", "Enter: Add", "↑/↓: Select", "ctrl+t: Done", "ctrl+d: Remove")
	case sectionTags, sectionOpportunities:
		help = append(help, "↑/↓: Select", "Space: Toggle")
	case sectionAttachments:
		help = append(help, "Tab: Field", "Enter: Add", "↑/↓: Select", "ctrl+d: Remove")
	case sectionFollowUp:
		help = append(help, "Tab: Field")
	}
	return append(help, "ctrl+n: Summary", "Esc: Questions")
}

func (m Model) handleDetailsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := m.ws.Active()
	if v == nil {
		m.goTo(interview.StepStart)
		return m, nil
	}

	switch msg.String() {
	case KeyEsc, KeyBack:
		m.goTo(interview.StepPrompts)
		return m, nil
	case KeyNext:
		m.goTo(interview.StepSummary)
		return m, nil
	case KeyPgDown:
		m.section = (m.section + 1) % sectionCount
		m.listCursor, m.detailFocus = 0, 0
		m.updateDetailFocus()
		return m, nil
	case KeyPgUp:
		m.section = (m.section + sectionCount - 1) % sectionCount
		m.listCursor, m.detailFocus = 0, 0
		m.updateDetailFocus()
		return m, nil
	case KeyUp:
		if m.listCursor > 0 {
			m.listCursor--
		}
		return m, nil
	case KeyDown:
		if m.listCursor < sectionLen(v, m.section)-1 {
			m.listCursor++
		}
		return m, nil
	case KeyTab:
		if inputs := m.sectionInputs(); len(inputs) > 0 {
			m.detailFocus = (m.detailFocus + 1) % len(inputs)
			m.updateDetailFocus()
		}
		return m, nil
	case KeyDelete:
		m.removeSelected(v)
		return m, nil
	case KeyChampion:
		if m.section == sectionContacts && m.listCursor < len(v.Contacts) {
			c := v.Contacts[m.listCursor]
			c.IsChampion = !c.IsChampion
			m.mutate(func(v *models.Visit) error { return v.UpdateContact(c) })
		}
		return m, nil
	case KeyComplete:
		if m.section == sectionActions && m.listCursor < len(v.ActionItems) {
			id := v.ActionItems[m.listCursor].ID
			m.mutate(func(v *models.Visit) error { return v.ToggleActionItem(id) })
		}
		return m, nil
	case KeyEnter, KeySpace:
		if m.section == sectionTags || m.section == sectionOpportunities {
			m.toggleSelected()
			return m, nil
		}
		if msg.String() == KeyEnter {
			m.addFromForm()
			return m, nil
		}
	}

	return m.updateDetailInput(msg)
}

func (m *Model) toggleSelected() {
	switch m.section {
	case sectionTags:
		if m.listCursor < len(models.Tags) {
			t := models.Tags[m.listCursor]
			m.mutate(func(v *models.Visit) error {
				v.ToggleTag(t)
				return nil
			})
		}
	case sectionOpportunities:
		if m.listCursor < len(models.SellingOpportunities) {
			o := models.SellingOpportunities[m.listCursor]
			m.mutate(func(v *models.Visit) error {
				v.ToggleOpportunity(o)
				return nil
			})
		}
	}
}

// addFromForm turns the current section's form into a new entry.
func (m *Model) addFromForm() {
	inputs := m.sectionInputs()
	if len(inputs) == 0 || m.section == sectionFollowUp {
		return
	}
	value := func(i int) string { return strings.TrimSpace(inputs[i].Value()) }
	if value(0) == "" {
		m.setError(fmt.Sprintf("%s needs a %s", sectionNames[m.section], strings.ToLower(inputs[0].Placeholder)))
		return
	}

	var ok bool
	switch m.section {
	case sectionContacts:
		c := models.Contact{Name: value(0), Title: value(1), Email: value(2), Phone: value(3)}
		ok = m.mutate(func(v *models.Visit) error {
			v.AddContact(c)
			return nil
		})
	case sectionActions:
		a := models.ActionItem{Description: value(0), Owner: value(1), DueDate: value(2)}
		ok = m.mutate(func(v *models.Visit) error {
			v.AddActionItem(a)
			return nil
		})
	case sectionAttachments:
		a := models.Attachment{Name: value(0), URL: value(1), Type: "link"}
		ok = m.mutate(func(v *models.Visit) error {
			v.AddAttachment(a)
			return nil
		})
	}
	if !ok {
		return
	}
	for i := range inputs {
		inputs[i].SetValue("")
	}
	m.detailFocus = 0
	m.updateDetailFocus()
	m.setStatus("Added")
}

func (m *Model) removeSelected(v *models.Visit) {
	var remove func(v *models.Visit) error
	switch m.section {
	case sectionContacts:
		if m.listCursor < len(v.Contacts) {
			id := v.Contacts[m.listCursor].ID
			remove = func(v *models.Visit) error { return v.RemoveContact(id) }
		}
	case sectionActions:
		if m.listCursor < len(v.ActionItems) {
			id := v.ActionItems[m.listCursor].ID
			remove = func(v *models.Visit) error { return v.RemoveActionItem(id) }
		}
	case sectionAttachments:
		if m.listCursor < len(v.Attachments) {
			id := v.Attachments[m.listCursor].ID
			remove = func(v *models.Visit) error { return v.RemoveAttachment(id) }
		}
	}
	if remove == nil {
		return
	}
	if m.mutate(remove) && m.listCursor > 0 {
		m.listCursor--
	}
}

func (m Model) updateDetailInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inputs := m.sectionInputs()
	if len(inputs) == 0 {
		return m, nil
	}

	i := m.detailFocus
	before := inputs[i].Value()
	var cmd tea.Cmd
	inputs[i], cmd = inputs[i].Update(msg)

	if m.section == sectionFollowUp {
		if after := inputs[i].Value(); after != before {
			m.mutate(func(v *models.Visit) error {
				if i == 0 {
					v.FollowUpDate = after
				} else {
					v.FollowUpNotes = after
				}
				return nil
			})
		}
	}
	return m, cmd
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
