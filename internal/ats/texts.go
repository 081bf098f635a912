package ats

import (
	"maps"

	"atsscore/internal/lexicon"
	"atsscore/internal/types"
)

var headlines = map[types.SectionKey]string{
	types.SectionParseRate:  "ATS Parse Rate & Structure",
	types.SectionDesign:     "Design & Layout",
	types.SectionKeywords:   "Keywords & Job Relevance",
	types.SectionImpact:     "Quantify Your Impact (XYZ Method)",
	types.SectionRepetition: "Repetition & Buzzwords",
	types.SectionGrammar:    "Grammar & Spelling",
	types.SectionEssentials: "Essential Sections",
	types.SectionContact:    "Contact Information",
	types.SectionFileFormat: "File Format & Size",
	types.SectionLength:     "Length & Bullet Density",
	types.SectionStyle:      "Style & Active Voice",
	types.SectionTemplates:  "Template Recommendations",
}

// Headline returns the fixed title of a section.
func Headline(key types.SectionKey) string {
	return headlines[key]
}

var uiTexts = map[string]map[string]string{
	"en": {
		"cta_build_ats_resume":     "Build ATS-friendly resume",
		"cta_keep_original_resume": "Keep original resume",
		"cta_rewrite_bullets":      "Rewrite bullet points",
		"cta_choose_template":      "Choose a template",
		"cta_improve_section":      "Improve this section",
		"cta_fix_issues":           "Fix these issues",
		"cta_view_examples":        "View examples",

		"section_title_parse_rate": "ATS Parse Rate",
		"section_title_design":     "Design & Layout",
		"section_title_keywords":   "Keywords & Relevance",
		"section_title_impact":     "Quantify Impact",
		"section_title_repetition": "Repetition & Buzzwords",
		"section_title_grammar":    "Grammar & Spelling",
		"section_title_sections":   "Essential Sections",
		"section_title_contact":    "Contact Information",
		"section_title_format":     "File Format & Size",
		"section_title_length":     "Length & Bullets",
		"section_title_style":      "Style & Active Voice",
		"section_title_templates":  "Template Suggestions",

		"label_score":       "Score",
		"label_status":      "Status",
		"label_issues":      "issues found",
		"label_suggestions": "Suggestions",
		"label_examples":    "Examples",
		"label_before":      "Before",
		"label_after":       "After",

		"status_excellent":         "Excellent",
		"status_good":              "Good",
		"status_needs_improvement": "Needs Improvement",
		"status_poor":              "Poor",

		"overall_title":    "Overall ATS Score",
		"overall_subtitle": "How well your resume performs with ATS systems",
		"parse_coverage":   "Parse Coverage",
		"word_count":       "Word Count",
		"bullet_count":     "Bullet Points",
	},
	"fr": {
		"cta_build_ats_resume":     "Créer un CV compatible ATS",
		"cta_keep_original_resume": "Garder le CV original",
		"cta_rewrite_bullets":      "Réécrire les points",
		"cta_choose_template":      "Choisir un modèle",
		"cta_improve_section":      "Améliorer cette section",
		"cta_fix_issues":           "Corriger ces problèmes",
		"cta_view_examples":        "Voir les exemples",

		"section_title_parse_rate": "Taux d'analyse ATS",
		"section_title_design":     "Design et mise en page",
		"section_title_keywords":   "Mots-clés et pertinence",
		"section_title_impact":     "Quantifier l'impact",
		"section_title_repetition": "Répétition et clichés",
		"section_title_grammar":    "Grammaire et orthographe",
		"section_title_sections":   "Sections essentielles",
		"section_title_contact":    "Informations de contact",
		"section_title_format":     "Format et taille du fichier",
		"section_title_length":     "Longueur et points",
		"section_title_style":      "Style et voix active",
		"section_title_templates":  "Suggestions de modèles",

		"label_score":       "Score",
		"label_status":      "Statut",
		"label_issues":      "problèmes trouvés",
		"label_suggestions": "Suggestions",
		"label_examples":    "Exemples",
		"label_before":      "Avant",
		"label_after":       "Après",

		"status_excellent":         "Excellent",
		"status_good":              "Bon",
		"status_needs_improvement": "À améliorer",
		"status_poor":              "Faible",

		"overall_title":    "Score ATS global",
		"overall_subtitle": "Performance de votre CV avec les systèmes ATS",
		"parse_coverage":   "Couverture d'analyse",
		"word_count":       "Nombre de mots",
		"bullet_count":     "Points de liste",
	},
}

// UITexts returns a copy of the interface strings for lang, English when
// the language has no table.
func UITexts(lang string) map[string]string {
	texts, ok := uiTexts[lang]
	if !ok {
		texts = uiTexts[lexicon.DefaultLanguage]
	}
	return maps.Clone(texts)
}

var faqs = map[string]map[types.SectionKey][]types.FAQ{
	"en": {
		types.SectionParseRate: {
			{Question: "What is ATS parse rate?", Answer: "ATS parse rate measures how much of your resume content can be correctly read and extracted by Applicant Tracking Systems. A high rate (90%+) means your formatting is ATS-friendly."},
			{Question: "Why does parse rate matter?", Answer: "If an ATS can't parse your resume, recruiters may never see your information. A low parse rate means important details could be lost or misplaced."},
			{Question: "How can I improve my parse rate?", Answer: "Use simple formatting, avoid tables and text boxes, stick to standard section headings, and use a clean, single-column layout."},
		},
		types.SectionDesign: {
			{Question: "What makes a resume ATS-friendly?", Answer: "Simple, clean formatting with standard fonts, clear section headings, no graphics or images, and consistent spacing. Avoid fancy designs that confuse parsing software."},
			{Question: "Can I use colors in my resume?", Answer: "Yes, but use them sparingly. Stick to simple accent colors for headings. Avoid colored backgrounds or text that could affect readability when printed or scanned."},
		},
		types.SectionRepetition: {
			{Question: "Why should I avoid buzzwords?", Answer: "Generic buzzwords like 'team player' or 'hard worker' don't differentiate you from other candidates. Use specific examples and achievements instead."},
			{Question: "How many times can I repeat a word?", Answer: "It's natural to repeat key skills (like 'Python' or 'project management'), but avoid overusing generic verbs. Vary your language to keep the resume engaging."},
		},
		types.SectionGrammar: {
			{Question: "Will one typo disqualify my resume?", Answer: "One small typo probably won't, but multiple errors signal lack of attention to detail. Always proofread carefully and have someone else review your resume."},
			{Question: "Should I use American or British English?", Answer: "Match the language style of the country where you're applying. Use American English for US jobs, British English for UK jobs."},
		},
		types.SectionFileFormat: {
			{Question: "What's the best file format for resumes?", Answer: "PDF is generally best as it preserves formatting across devices. However, some ATS systems prefer Word (.docx). When in doubt, check the job posting."},
			{Question: "How large should my resume file be?", Answer: "Keep it under 2MB. Most systems accept files up to 5-10MB, but smaller files upload faster and are less likely to cause issues."},
		},
	},
	"fr": {
		types.SectionParseRate: {
			{Question: "Qu'est-ce que le taux d'analyse ATS ?", Answer: "Le taux d'analyse ATS mesure la quantité de contenu de votre CV qui peut être correctement lu et extrait par les systèmes de suivi des candidatures. Un taux élevé (90%+) signifie que votre formatage est compatible ATS."},
			{Question: "Pourquoi le taux d'analyse est-il important ?", Answer: "Si un ATS ne peut pas analyser votre CV, les recruteurs pourraient ne jamais voir vos informations. Un faible taux signifie que des détails importants pourraient être perdus."},
		},
		types.SectionDesign: {
			{Question: "Qu'est-ce qui rend un CV compatible ATS ?", Answer: "Un formatage simple et propre avec des polices standard, des titres de section clairs, pas de graphiques ni d'images, et un espacement cohérent."},
		},
		types.SectionRepetition: {
			{Question: "Pourquoi éviter les mots à la mode ?", Answer: "Les mots génériques comme 'esprit d'équipe' ne vous différencient pas. Utilisez plutôt des exemples spécifiques et des réalisations concrètes."},
		},
		types.SectionGrammar: {
			{Question: "Une faute de frappe éliminera-t-elle mon CV ?", Answer: "Une petite faute ne devrait pas, mais plusieurs erreurs signalent un manque d'attention aux détails. Relisez toujours attentivement."},
		},
		types.SectionFileFormat: {
			{Question: "Quel est le meilleur format pour un CV ?", Answer: "Le PDF est généralement le meilleur car il préserve le formatage. Cependant, certains ATS préfèrent Word (.docx). En cas de doute, vérifiez l'annonce."},
		},
	},
}

// FAQs returns the questions shown next to a section. Sections without
// FAQs get nil.
func FAQs(key types.SectionKey, lang string) []types.FAQ {
	byLang, ok := faqs[lang]
	if !ok {
		byLang = faqs[lexicon.DefaultLanguage]
	}
	list := byLang[key]
	if len(list) == 0 {
		return nil
	}
	out := make([]types.FAQ, len(list))
	copy(out, list)
	return out
}

var educationalExamples = map[string][]types.EducationalExample{
	"en": {
		{
			WeakExample:   "Managed a team",
			StrongExample: "Led a team of 8 engineers to deliver 3 major features, increasing user engagement by 25%",
			Comment:       "Use the XYZ method: Accomplished [X] as measured by [Y] by doing [Z]",
		},
		{
			WeakExample:   "Improved sales performance",
			StrongExample: "Increased quarterly sales by 35% ($200K) through targeted email campaigns and client outreach",
			Comment:       "Always include specific numbers and percentages when possible",
		},
		{
			WeakExample:   "Responsible for customer support",
			StrongExample: "Resolved 50+ customer tickets daily with 98% satisfaction rate, reducing response time by 40%",
			Comment:       "Show both volume and quality metrics",
		},
		{
			WeakExample:   "Worked on product development",
			StrongExample: "Designed and launched 2 product features used by 10K+ users, generating $50K in new revenue",
			Comment:       "Connect your work to business outcomes",
		},
	},
	"fr": {
		{
			WeakExample:   "Géré une équipe",
			StrongExample: "Dirigé une équipe de 8 ingénieurs pour livrer 3 fonctionnalités majeures, augmentant l'engagement des utilisateurs de 25%",
			Comment:       "Utilisez la méthode XYZ : Accompli [X] mesuré par [Y] en faisant [Z]",
		},
		{
			WeakExample:   "Amélioré les performances des ventes",
			StrongExample: "Augmenté les ventes trimestrielles de 35% (200K€) grâce à des campagnes email ciblées",
			Comment:       "Incluez toujours des chiffres et pourcentages spécifiques",
		},
		{
			WeakExample:   "Responsable du support client",
			StrongExample: "Résolu 50+ tickets clients par jour avec un taux de satisfaction de 98%, réduisant le temps de réponse de 40%",
			Comment:       "Montrez à la fois les métriques de volume et de qualité",
		},
	},
}

// EducationalExamples returns weak/strong bullet pairs for lang.
func EducationalExamples(lang string) []types.EducationalExample {
	list, ok := educationalExamples[lang]
	if !ok {
		list = educationalExamples[lexicon.DefaultLanguage]
	}
	out := make([]types.EducationalExample, len(list))
	copy(out, list)
	return out
}
