package registration

import (
	"github.com/trezcool/tamasha/core"
	"github.com/trezcool/tamasha/core/event"
)

// Combo pricing. CS and PES price their events as a step function of how
// many events a participant picks from that chapter, not per event; the two
// tables are independent. Beyond three events the combo no longer applies
// and each event costs the chapter's single price. The membership discount
// never touches combo-priced chapters.
type comboTable struct {
	one    int
	two    int
	three  int
	single int
}

var comboTables = map[core.Chapter]comboTable{
	core.ChapterCS:  {one: 100, two: 180, three: 250, single: 100},
	core.ChapterPES: {one: 120, two: 220, three: 300, single: 120},
}

func (t comboTable) priceFor(count int) int {
	switch count {
	case 0:
		return 0
	case 1:
		return t.one
	case 2:
		return t.two
	case 3:
		return t.three
	default:
		return count * t.single
	}
}

func IsComboChapter(ch core.Chapter) bool {
	_, ok := comboTables[ch]
	return ok
}

// Quote is the priced breakdown of a selection, as shown to the participant
// before payment.
type Quote struct {
	Total         int                  `json:"total"`
	BaseTotal     int                  `json:"base_total"` // naive sum of base fees
	ComboSavings  map[core.Chapter]int `json:"combo_savings,omitempty"`
	MemberSavings int                  `json:"member_savings"`
}

func (q Quote) TotalSavings() int {
	savings := q.MemberSavings
	for _, s := range q.ComboSavings {
		savings += s
	}
	return savings
}

// ComputeQuote prices a selection of events. It is a pure function of the
// selection and the membership flag; an empty selection quotes to zero.
func ComputeQuote(selection []event.Event, isMember bool) Quote {
	q := Quote{ComboSavings: make(map[core.Chapter]int)}

	comboBase := make(map[core.Chapter]int)  // naive fee sum per combo chapter
	comboCount := make(map[core.Chapter]int) // selected count per combo chapter

	for _, evt := range selection {
		q.BaseTotal += evt.Fee
		if IsComboChapter(evt.Chapter) {
			comboBase[evt.Chapter] += evt.Fee
			comboCount[evt.Chapter]++
			continue
		}
		price := discountedFee(evt.Fee, isMember)
		q.MemberSavings += evt.Fee - price
		q.Total += price
	}

	for ch, count := range comboCount {
		price := comboTables[ch].priceFor(count)
		q.Total += price
		if saved := comboBase[ch] - price; saved > 0 {
			q.ComboSavings[ch] = saved
		}
	}
	if len(q.ComboSavings) == 0 {
		q.ComboSavings = nil
	}
	return q
}

// ApportionAmounts splits a selection's quoted total across its rows, so
// stored registration amounts (and the payments derived from them) always
// add up to what the participant was charged. Non-combo events carry their
// discounted fee; a combo chapter's step price is spread evenly over the
// chapter's rows, leftover rupees going to its earliest rows. The returned
// slice is parallel to selection.
func ApportionAmounts(selection []event.Event, isMember bool) []int {
	amounts := make([]int, len(selection))

	comboRows := make(map[core.Chapter][]int) // indexes into selection
	for i, evt := range selection {
		if IsComboChapter(evt.Chapter) {
			comboRows[evt.Chapter] = append(comboRows[evt.Chapter], i)
			continue
		}
		amounts[i] = discountedFee(evt.Fee, isMember)
	}

	for ch, rows := range comboRows {
		price := comboTables[ch].priceFor(len(rows))
		share, leftover := price/len(rows), price%len(rows)
		for _, i := range rows {
			amounts[i] = share
			if leftover > 0 {
				amounts[i]++
				leftover--
			}
		}
	}
	return amounts
}

// discountedFee applies the flat membership discount, floored at zero.
func discountedFee(fee int, isMember bool) int {
	if !isMember {
		return fee
	}
	fee -= core.Conf.Registration.MemberDiscount
	if fee < 0 {
		return 0
	}
	return fee
}
