package triage

type labelKeywords struct {
	label    string
	keywords []string
}

// 声明顺序即平局时的优先级
var labelTable = []labelKeywords{
	{"Anxiety", []string{"anxiety", "anxious", "worry", "panic", "nervous"}},
	{"Depression", []string{"depressed", "sad", "hopeless", "empty", "down"}},
	{"Bipolar Disorder", []string{"manic", "mania", "mood swings", "euphoric"}},
	{"PTSD", []string{"flashbacks", "nightmares", "trauma", "startle"}},
	{"OCD", []string{"obsessive", "compulsive", "checking", "rituals", "intrusive"}},
	{"ADHD", []string{"focus", "attention", "hyper", "restless", "impulsive"}},
	{"Eating Disorder", []string{"eating", "binge", "purge", "anorexia", "bulimia"}},
	{"Substance Abuse", []string{"drinking", "alcohol", "drugs", "substances", "addiction"}},
	{"Schizophrenia", []string{"voices", "hallucinations", "paranoid", "delusions"}},
	{"Personality Disorder", []string{"relationships", "identity", "unstable", "abandonment"}},
}

// Labels lists every label the engine can return, No Disorder last.
func Labels() []string {
	out := make([]string, 0, len(labelTable)+1)
	for _, l := range labelTable {
		out = append(out, l.label)
	}
	return append(out, NoDisorder)
}

var emergencyPhrases = []string{"suicide", "kill myself", "end it all", "not worth living", "harm myself"}

var recommendations = map[string]map[Severity]string{
	"Anxiety": {
		Mild:     "Practice deep breathing exercises, maintain a regular sleep schedule, and consider mindfulness meditation.",
		Moderate: "Consider therapy or counseling, practice relaxation techniques, and maintain a healthy lifestyle.",
		Severe:   "Seek immediate professional help, consider medication consultation, and have a support system in place.",
	},
	"Depression": {
		Mild:     "Maintain regular exercise, establish a daily routine, and stay connected with loved ones.",
		Moderate: "Consider therapy, maintain physical activity, and monitor your mood patterns.",
		Severe:   "Seek immediate professional help, consider medication, and ensure you have emergency contacts.",
	},
	NoDisorder: {
		Mild:     "Continue maintaining good mental health practices and regular self-care.",
		Moderate: "Continue current practices and consider preventive mental health measures.",
		Severe:   "Continue current practices and consider regular mental health check-ins.",
	},
}

var nextSteps = map[Severity]string{
	Severe:   "1. Contact a mental health professional immediately\n2. Reach out to emergency services if needed\n3. Inform a trusted friend or family member\n4. Follow up with regular appointments",
	Moderate: "1. Schedule an appointment with a mental health professional\n2. Practice recommended coping strategies\n3. Monitor your symptoms\n4. Consider joining a support group",
	Mild:     "1. Continue self-care practices\n2. Monitor your mental health\n3. Consider preventive counseling\n4. Maintain healthy lifestyle habits",
}

func recommendationFor(label string, sev Severity) string {
	row, ok := recommendations[label]
	if !ok {
		row = recommendations[NoDisorder]
	}
	if r, ok := row[sev]; ok {
		return r
	}
	return row[Mild]
}

func nextStepsFor(sev Severity) string {
	if s, ok := nextSteps[sev]; ok {
		return s
	}
	return nextSteps[Mild]
}
