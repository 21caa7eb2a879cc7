// Package i18n provides the small fixed set of interface translations the
// templates need. Spanish is the default; English is offered for clients
// abroad reviewing shared pages.
package i18n

import "strings"

var translations = map[string]map[string]string{
	"es": {
		"app_title": "Autónomo",
		"tagline": "Facturación y calendario fiscal para autónomos",
		"email": "Correo electrónico",
		"password": "Contraseña",
		"name": "Nombre",
		"tax_id": "NIF",
		"reta_number": "Número RETA",
		"no_account": "¿No tienes cuenta? Regístrate",
		"required": "Obligatorio",
		"clients": "Clientes",
		"invoices": "Facturas",
		"expenses": "Gastos",
		"reminders": "Recordatorios",
		"calendar": "Calendario fiscal",
		"profile": "Perfil",
		"dashboard": "Panel",
		"logout": "Salir",
		"login": "Entrar",
		"signup": "Registrarse",
		"save": "Guardar",
		"delete": "Eliminar",
		"new_invoice": "Nueva factura",
		"new_client": "Nuevo cliente",
		"new_expense": "Nuevo gasto",
		"subtotal": "Base imponible",
		"vat": "IVA",
		"withholding": "Retención IRPF",
		"total": "Total",
		"status": "Estado",
		"due_date": "Vencimiento",
		"seed_reminders": "Generar calendario fiscal",
		"invoice_created": "Factura creada",
		"client_created": "Cliente creado",
		"expense_created": "Gasto registrado",
		"reminder_done": "Recordatorio completado",
		"profile_saved": "Perfil guardado",
	},
	"en": {
		"app_title": "Autónomo",
		"tagline": "Invoicing and tax calendar for Spanish freelancers",
		"email": "Email",
		"password": "Password",
		"name": "Name",
		"tax_id": "Tax ID (NIF)",
		"reta_number": "RETA number",
		"no_account": "No account? Sign up",
		"required": "Required",
		"clients": "Clients",
		"invoices": "Invoices",
		"expenses": "Expenses",
		"reminders": "Reminders",
		"calendar": "Tax calendar",
		"profile": "Profile",
		"dashboard": "Dashboard",
		"logout": "Log out",
		"login": "Log in",
		"signup": "Sign up",
		"save": "Save",
		"delete": "Delete",
		"new_invoice": "New invoice",
		"new_client": "New client",
		"new_expense": "New expense",
		"subtotal": "Subtotal",
		"vat": "VAT",
		"withholding": "IRPF withholding",
		"total": "Total",
		"status": "Status",
		"due_date": "Due date",
		"seed_reminders": "Generate tax calendar",
		"invoice_created": "Invoice created",
		"client_created": "Client created",
		"expense_created": "Expense recorded",
		"reminder_done": "Reminder completed",
		"profile_saved": "Profile saved",
	},
}

// T translates a code for a language, falling back to Spanish, then to the
// code itself so missing entries stay visible instead of blank.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := translations["es"][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if i := strings.IndexAny(tag, "-;"); i >= 0 {
			tag = tag[:i]
		}
		switch tag {
		case "es", "en":
			return tag
		}
	}
	return "es"
}
