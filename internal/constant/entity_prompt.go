package constant

// Appended to the default persona when the turn targets one record.
const (
	BillEntityPrompt = `The user is viewing bill %s. Unless they clearly ask about something else,
"this bill" and "it" refer to %s. Cover what it does, its status, sponsor and committee.`

	MemberEntityPrompt = `The user is viewing the profile of legislator %s. Questions about "they" or
"this member" refer to them; focus on bills they sponsor and their committee work.`

	CommitteeEntityPrompt = `The user is viewing the %s committee. Focus on bills referred to it
and their progress.`
)
