package results

// PartyScore is the minimal apportionment input: the unique party key and its
// netto score.
type PartyScore struct {
	Abbreviation string
	Netto        float64
}

// Apportion distributes totalSeats over the scored parties with the D'Hondt
// highest-quotient method. Parties with netto <= 0 cannot receive seats; when
// none remain the map is empty and no seats are awarded. Otherwise exactly
// totalSeats seats are handed out, one per round, each to the party with the
// strictly highest netto/(seats+1) quotient.
//
// Tie-break: on an exact quotient tie the earliest entry in the input slice
// wins (the comparison is strict, so a later equal quotient never displaces
// the current leader). Callers that need a stable outcome must feed a stable
// order.
func Apportion(scores []PartyScore, totalSeats int) map[string]int {
	eligible := make([]PartyScore, 0, len(scores))
	for _, score := range scores {
		if score.Netto > 0 {
			eligible = append(eligible, score)
		}
	}
	if len(eligible) == 0 {
		return map[string]int{}
	}

	seats := make(map[string]int, len(eligible))
	for _, score := range eligible {
		seats[score.Abbreviation] = 0
	}

	for round := 0; round < totalSeats; round++ {
		var winner string
		var maxQuotient float64

		for _, score := range eligible {
			quotient := score.Netto / float64(seats[score.Abbreviation]+1)
			if quotient > maxQuotient {
				maxQuotient = quotient
				winner = score.Abbreviation
			}
		}

		if winner == "" {
			break
		}
		seats[winner]++
	}
	return seats
}
