package prompts

// Domain knowledge baked into the interviewer prompts so the agent asks
// informed questions instead of generic ones. UK local authority finance.

type termDef struct {
	Term string
	Def  string
}

var financeTerminology = []termDef{
	{"MTFS", "Medium Term Financial Strategy - multi-year financial planning document"},
	{"S151", "Section 151 Officer - statutory chief finance officer role"},
	{"PWLB", "Public Works Loan Board - government lending to local authorities"},
	{"MRP", "Minimum Revenue Provision - statutory debt repayment"},
	{"HRA", "Housing Revenue Account - ring-fenced housing finance"},
	{"DSG", "Dedicated Schools Grant - education funding"},
	{"NNDR", "National Non-Domestic Rates - business rates"},
	{"Collection Fund", "Accounting for council tax and business rates"},
	{"Prudential Code", "CIPFA framework for capital finance decisions"},
	{"Treasury Management", "Managing cash, investments and borrowing"},
	{"Outturn", "Actual spending compared to budget"},
	{"Virement", "Transfer of budget between headings"},
	{"Earmarked Reserves", "Reserves set aside for specific purposes"},
	{"General Fund", "Main revenue account for council services"},
}

var commonSubtopics = map[string][]string{
	"month-end":   {"journal processing", "accruals", "prepayments", "suspense clearance", "bank reconciliation", "control accounts"},
	"year-end":    {"closedown timetable", "final accounts", "audit preparation", "working papers", "disclosure notes", "AGS"},
	"budget":      {"budget setting", "budget monitoring", "variance analysis", "forecasting", "savings tracking", "growth bids"},
	"treasury":    {"cash flow", "investments", "borrowing", "counterparty limits", "interest rates", "prudential indicators"},
	"vat":         {"partial exemption", "VAT returns", "reverse charge", "exempt supplies", "capital goods scheme"},
	"payroll":     {"pension contributions", "tax codes", "statutory payments", "P11D", "gender pay reporting"},
	"procurement": {"contract standing orders", "tender evaluation", "framework agreements", "social value"},
	"grants":      {"grant conditions", "claiming procedures", "audit requirements", "clawback risk"},
	"capital":     {"capital programme", "financing", "project monitoring", "slippage", "capitalisation"},
	"audit":       {"internal audit", "external audit", "audit committee", "management responses", "follow-up"},
}

var (
	internalStakeholders  = []string{"Chief Executive", "Directors", "Service Managers", "HR", "Legal", "IT", "Democratic Services"}
	externalStakeholders  = []string{"External Auditors", "Internal Audit", "CIPFA", "LGA", "Government Departments", "Banks", "Suppliers"}
	politicalStakeholders = []string{"Leader", "Cabinet", "Scrutiny Committee", "Audit Committee", "Full Council"}
	commonSystems         = []string{"Oracle", "SAP", "Unit4", "Agresso", "Civica", "Academy", "Integra", "BACS", "Bankline"}
)
