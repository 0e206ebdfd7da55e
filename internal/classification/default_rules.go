package classification

import "github.com/Veraticus/inbox-triage/internal/model"

// DefaultCategories returns the built-in category definitions in registry order.
func DefaultCategories() []model.CategoryDefinition {
	return []model.CategoryDefinition{
		{ID: model.CategoryNewsletters, DisplayName: "Newsletters", Icon: "📰", Priority: 100,
			Description: "Mailing lists, digests and marketing footers"},
		{ID: model.CategorySecurity, DisplayName: "Security", Icon: "🔒", Priority: 95,
			Description: "Sign-in alerts, verification codes and password resets"},
		{ID: model.CategoryTasks, DisplayName: "Tasks", Icon: "✅", Priority: 90,
			Description: "Requests that need an action or an approval"},
		{ID: model.CategoryCC, DisplayName: "In copy", Icon: "👥", Priority: 88,
			Description: "Messages where you are only in copy"},
		{ID: model.CategoryFinance, DisplayName: "Finance", Icon: "💶", Priority: 85,
			Description: "Invoices, payments and bank statements"},
		{ID: model.CategoryMeetings, DisplayName: "Meetings", Icon: "📅", Priority: 80,
			Description: "Meeting invitations and calendar updates"},
		{ID: model.CategorySupport, DisplayName: "Support", Icon: "🛟", Priority: 75,
			Description: "Support tickets and customer service"},
		{ID: model.CategoryProject, DisplayName: "Project", Icon: "📁", Priority: 70,
			Description: "Project updates, sprints and code reviews"},
		{ID: model.CategoryCommercial, DisplayName: "Commercial", Icon: "🛍️", Priority: 60,
			Description: "Promotions and special offers"},
		{ID: model.CategoryNotifications, DisplayName: "Notifications", Icon: "🔔", Priority: 50,
			Description: "Automatic notifications from services"},
		{ID: model.CategoryOther, DisplayName: "Other", Icon: "📄", Priority: 0,
			Description: "Everything that matched no category"},
	}
}

// DefaultRuleSets returns the built-in keyword tiers keyed by category id.
// Keywords are folded by the registry, so accents and case are irrelevant here.
func DefaultRuleSets() map[string]model.KeywordRuleSet {
	return map[string]model.KeywordRuleSet{
		model.CategoryNewsletters: {
			Absolute: []string{
				"unsubscribe", "se désabonner", "se désinscrire", "désinscription",
				"désabonnement", "newsletter", "view in browser",
				"voir la version en ligne", "manage your subscription",
			},
			Strong: []string{
				"mailing list", "weekly digest", "lettre d'information",
				"hebdomadaire", "email preferences", "you are receiving this",
				"gérer vos préférences",
			},
			Weak:      []string{"this week", "cette semaine", "read more", "lire la suite", "édition"},
			Exclusion: []string{"password reset", "réinitialisation du mot de passe", "security alert"},
		},
		model.CategorySecurity: {
			Absolute: []string{
				"alerte de sécurité", "security alert", "code de vérification",
				"verification code", "password reset", "réinitialisation du mot de passe",
				"connexion suspecte", "suspicious sign-in", "authentification à deux facteurs",
				"two-factor authentication",
			},
			Strong: []string{
				"mot de passe", "password", "connexion", "sign-in", "authentification",
				"sécurité", "security", "2fa", "one-time code",
			},
			Weak:      []string{"compte", "account", "appareil", "device", "verify", "vérifier"},
			Exclusion: []string{"webinar", "webinaire", "promotion"},
		},
		model.CategoryTasks: {
			// Absolute forms need the subject-prefix colon so that
			// "aucune action requise" and "no action required" stay vetoed.
			Absolute: []string{
				"action requise:", "action required:", "merci de valider",
				"please approve", "approval required", "validation requise",
				"tâche assignée", "task assigned to you",
			},
			Strong: []string{
				"deadline", "échéance", "due date", "urgent", "please review",
				"à traiter", "reminder", "rappel", "merci de",
				"action requise", "action required",
			},
			Weak: []string{"validation", "valider", "review", "asap", "demande", "request"},
			Exclusion: []string{
				"no action required", "aucune action requise",
				"for your information", "pour information",
			},
		},
		model.CategoryFinance: {
			Absolute: []string{
				"facture", "invoice", "relevé de compte", "bank statement",
				"avis de paiement", "payment received", "remboursement", "reçu de paiement",
			},
			Strong: []string{
				"paiement", "payment", "virement", "montant", "amount due",
				"prélèvement", "tva", "iban",
			},
			Weak:      []string{"euros", "total", "tarif", "billing", "facturation"},
			Exclusion: []string{"offre spéciale", "special offer", "code promo"},
		},
		model.CategoryMeetings: {
			Absolute: []string{
				"meeting invitation", "invitation à une réunion",
				"microsoft teams meeting", "réunion microsoft teams", "zoom meeting",
				"google meet", "calendar invitation", "invitation au calendrier",
			},
			Strong: []string{
				"réunion", "meeting", "rendez-vous", "appointment", "agenda",
				"calendrier", "calendar", "conference call", "visioconférence",
			},
			Weak:      []string{"salle", "horaire", "disponibilité", "availability", "créneau"},
			Exclusion: []string{"webinar", "webinaire"},
		},
		model.CategorySupport: {
			Absolute: []string{
				"ticket #", "numéro de ticket", "ticket number", "support request",
				"demande de support", "case number",
			},
			Strong: []string{
				"support", "assistance", "helpdesk", "help desk", "ticket",
				"incident", "service client", "customer service",
			},
			Weak:      []string{"problème", "problem", "issue", "erreur", "error", "aide"},
			Exclusion: []string{"newsletter"},
		},
		model.CategoryProject: {
			Absolute: []string{
				"pull request", "merge request", "sprint review", "revue de sprint",
				"project update", "point projet", "compte rendu projet",
			},
			Strong: []string{
				"projet", "project", "sprint", "milestone", "jalon", "livrable",
				"deliverable", "roadmap", "feuille de route", "backlog", "jira",
				"gitlab", "github", "confluence",
			},
			Weak:      []string{"équipe", "planning", "avancement", "progress", "release"},
			Exclusion: []string{"code promo", "special offer"},
		},
		model.CategoryCommercial: {
			Absolute: []string{
				"offre spéciale", "special offer", "code promo", "promo code",
				"soldes", "black friday", "limited time offer", "offre limitée",
			},
			Strong: []string{
				"promotion", "réduction", "discount", "% off", "livraison gratuite",
				"free shipping", "achetez", "shop now", "nouvelle collection",
			},
			Weak:      []string{"offre", "offer", "deal", "prix", "boutique"},
			Exclusion: []string{"facture", "invoice"},
		},
		model.CategoryNotifications: {
			Absolute: []string{
				"notification automatique", "automatic notification",
				"ne pas répondre", "do not reply", "noreply", "no-reply",
			},
			Strong: []string{
				"notification", "alerte", "alert", "mise à jour", "update",
				"statut", "status",
			},
			Weak: []string{"information", "automatique", "automatic"},
		},
	}
}

// DefaultBaseBonuses returns the score floor granted to categories that are
// rarely false positives.
func DefaultBaseBonuses() map[string]int {
	return map[string]int{
		model.CategorySecurity: 10,
		model.CategoryTasks:    10,
		model.CategoryFinance:  5,
	}
}
