package ai

import (
	"fmt"
	"hash/fnv"
)

// Patient is a generated simulated-patient persona. The same room code and
// student id always produce the same patient, so a student's interview stays
// consistent across requests without any server-side conversation state.
type Patient struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	Occupation     string `json:"occupation"`
	ChiefComplaint string `json:"chiefComplaint"`
	History        string `json:"history"`
	Personality    string `json:"personality"`
}

var firstNamesFemale = []string{
	"Maria", "Josefina", "Carmen", "Luz", "Teresa", "Angelica", "Rosario", "Gloria",
}

var firstNamesMale = []string{
	"Jose", "Antonio", "Ricardo", "Manuel", "Eduardo", "Francisco", "Roberto", "Alfredo",
}

var lastNames = []string{
	"Santos", "Reyes", "Cruz", "Garcia", "Mendoza", "Torres", "Flores", "Ramos",
	"Villanueva", "Aquino", "Navarro", "Domingo",
}

var occupations = []string{
	"retired schoolteacher", "jeepney driver", "market vendor", "security guard",
	"seamstress", "farmer", "call center agent", "carpenter", "barangay clerk",
}

var complaints = []struct {
	chief   string
	history string
}{
	{"chest pain that started this morning", "has had high blood pressure for five years but often skips medication"},
	{"shortness of breath when climbing stairs", "smoked a pack a day for twenty years, quit last year"},
	{"persistent cough for three weeks", "no fever, but night sweats for the past week"},
	{"dizziness and headaches", "recently diagnosed with type 2 diabetes, not yet on insulin"},
	{"abdominal pain after meals", "self-medicates with antacids, pain getting worse"},
	{"swelling in both ankles", "takes an unknown maintenance medication a relative buys"},
	{"lower back pain after lifting", "works long hours, no previous injuries"},
	{"frequent urination and thirst", "family history of diabetes on the mother's side"},
}

var personalities = []string{
	"talkative and a bit anxious, tends to wander off topic",
	"reserved, answers only what is asked",
	"cheerful but downplays symptoms",
	"worried and asks a lot of questions back",
	"impatient, wants to get back to work",
}

// PersonaSeed derives a stable seed from the room code and student id
func PersonaSeed(roomCode, studentID string) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s-%s", roomCode, studentID)
	return int(h.Sum32() % 1000)
}

// GeneratePatient builds the deterministic persona for a student in a room
func GeneratePatient(roomCode, studentID string) Patient {
	seed := PersonaSeed(roomCode, studentID)

	var first string
	var gender string
	if seed%2 == 0 {
		first = firstNamesFemale[seed%len(firstNamesFemale)]
		gender = "female"
	} else {
		first = firstNamesMale[seed%len(firstNamesMale)]
		gender = "male"
	}

	complaint := complaints[seed%len(complaints)]

	return Patient{
		Name:           first + " " + lastNames[seed%len(lastNames)],
		Age:            30 + seed%45,
		Gender:         gender,
		Occupation:     occupations[seed%len(occupations)],
		ChiefComplaint: complaint.chief,
		History:        complaint.history,
		Personality:    personalities[seed%len(personalities)],
	}
}

// SystemPrompt renders the persona into the instruction the model role-plays
func SystemPrompt(p Patient) string {
	return fmt.Sprintf(`You are role-playing a patient in a nursing school consultation exercise. Stay in character at all times.

Your identity:
- Name: %s
- Age: %d
- Gender: %s
- Occupation: %s

Your situation: you came to the clinic because of %s. Background: %s.

Your personality: %s.

Rules:
- Answer as the patient, in first person, in plain conversational English.
- Only reveal details the student actually asks about.
- Never diagnose yourself or use clinical terminology.
- Keep answers to a few sentences.
- If asked something outside the scenario, improvise consistently with your identity.`,
		p.Name, p.Age, p.Gender, p.Occupation, p.ChiefComplaint, p.History, p.Personality)
}
