/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts travel as decimal strings in both directions ("5000.00"), never as
  JSON numbers, so no value passes through float64. Responses carry the
  exact unrounded values; rounding is the client's (or render's) job.

TYPES:
  Payslip input:
    PayslipRequest, EarningRequest, LineRequest, EmployeeDTO, LineIdentityDTO

  Payslip output:
    SummaryDTO, LineDTO, BasesDTO, FundDTO, SocialSecurityDTO, WithholdingDTO
    IssuedPayslipDTO, PayslipRecordDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/tables.go: ScheduleDocument (GET /api/tables)
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payslip"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// PayslipRequest is the input document of a payslip. It is also what the
// archive stores, so an issued payslip can be recomputed.
type PayslipRequest struct {
	// Competency is "YYYY-MM". Empty means the current month.
	Competency string      `json:"competency"`
	Employee   EmployeeDTO `json:"employee"`

	// BaseSalary overrides the first earning as the printed base salary.
	BaseSalary string `json:"base_salary,omitempty"`
	Dependents int    `json:"dependents,omitempty"`

	Earnings   []EarningRequest `json:"earnings"`
	Deductions []LineRequest    `json:"deductions,omitempty"`

	SocialSecurityLine *LineIdentityDTO `json:"social_security_line,omitempty"`
	WithholdingLine    *LineIdentityDTO `json:"withholding_line,omitempty"`
}

// LineRequest is a caller-supplied line.
type LineRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Reference   string `json:"reference,omitempty"`
	Amount      string `json:"amount"`
}

// EarningRequest is an earning line. Each base flag defaults to true.
type EarningRequest struct {
	LineRequest
	Fund           *bool `json:"fund,omitempty"`
	SocialSecurity *bool `json:"social_security,omitempty"`
	Withholding    *bool `json:"withholding,omitempty"`
}

// EmployeeDTO identifies the employee.
type EmployeeDTO struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	Role       string `json:"role,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	Admission  string `json:"admission,omitempty"`
}

// LineIdentityDTO overrides the code/description of a synthesized line.
type LineIdentityDTO struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// SummaryDTO is a computed payslip.
type SummaryDTO struct {
	Competency string      `json:"competency"`
	Label      string      `json:"label"`
	Employee   EmployeeDTO `json:"employee"`
	Items      []LineDTO   `json:"items"` // earnings first, then deductions

	BaseSalary decimal.Decimal `json:"base_salary"`
	Dependents int             `json:"dependents"`
	Bases      BasesDTO        `json:"bases"`

	Fund           FundDTO           `json:"fund"`
	SocialSecurity SocialSecurityDTO `json:"social_security"`
	Withholding    WithholdingDTO    `json:"withholding"`

	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetAmount       decimal.Decimal `json:"net_amount"`
}

// LineDTO is one printed line.
type LineDTO struct {
	Kind        string          `json:"kind"` // earning, deduction
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Amount      decimal.Decimal `json:"amount"`
}

// BasesDTO are the taxable bases derived from the earnings.
type BasesDTO struct {
	Fund           decimal.Decimal `json:"fund"`
	SocialSecurity decimal.Decimal `json:"social_security"`
	Withholding    decimal.Decimal `json:"withholding"`
}

// FundDTO is the employer fund contribution. Not a payslip line.
type FundDTO struct {
	Rate   decimal.Decimal `json:"rate"`
	Base   decimal.Decimal `json:"base"`
	Amount decimal.Decimal `json:"amount"`
}

// SocialSecurityDTO is the employee contribution.
type SocialSecurityDTO struct {
	Rate   decimal.Decimal `json:"rate"`
	Base   decimal.Decimal `json:"base"`
	Amount decimal.Decimal `json:"amount"`
	Teto   decimal.Decimal `json:"teto"`
	Capped bool            `json:"capped"`
	Policy string          `json:"policy"`
}

// WithholdingDTO is the income-tax withholding.
type WithholdingDTO struct {
	Rate               decimal.Decimal `json:"rate"`
	Base               decimal.Decimal `json:"base"`
	Amount             decimal.Decimal `json:"amount"`
	Exempt             bool            `json:"exempt"`
	DeductibleParcel   decimal.Decimal `json:"deductible_parcel"`
	DependentDeduction decimal.Decimal `json:"dependent_deduction"`
	Due                bool            `json:"due"`
}

// IssuedPayslipDTO is an archived payslip with its computation.
type IssuedPayslipDTO struct {
	ID        string     `json:"id"`
	CreatedAt string     `json:"created_at"`
	Summary   SummaryDTO `json:"summary"`
}

// PayslipRecordDTO is an archive listing entry.
type PayslipRecordDTO struct {
	ID              string          `json:"id"`
	EmployeeCode    string          `json:"employee_code"`
	Competency      string          `json:"competency"`
	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	CreatedAt       string          `json:"created_at"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toEmployee(e EmployeeDTO) payslip.Employee {
	return payslip.Employee{
		Name:       e.Name,
		Code:       e.Code,
		Role:       e.Role,
		Occupation: e.Occupation,
		Admission:  e.Admission,
	}
}

func toEmployeeDTO(e payslip.Employee) EmployeeDTO {
	return EmployeeDTO{
		Name:       e.Name,
		Code:       e.Code,
		Role:       e.Role,
		Occupation: e.Occupation,
		Admission:  e.Admission,
	}
}

func toSummaryDTO(s *payslip.Summary) SummaryDTO {
	items := make([]LineDTO, 0, len(s.Items))
	for _, item := range s.DisplayItems() {
		line := item.Details()
		items = append(items, LineDTO{
			Kind:        string(item.Kind()),
			Code:        line.Code,
			Description: line.Description,
			Reference:   line.Reference,
			Amount:      line.Amount,
		})
	}

	return SummaryDTO{
		Competency: s.Period.String(),
		Label:      s.Period.Label(),
		Employee:   toEmployeeDTO(s.Employee),
		Items:      items,
		BaseSalary: s.BaseSalary,
		Dependents: s.Dependents,
		Bases: BasesDTO{
			Fund:           s.Bases.Fund,
			SocialSecurity: s.Bases.SocialSecurity,
			Withholding:    s.Bases.Withholding,
		},
		Fund: FundDTO{
			Rate:   s.Fund.Rate(),
			Base:   s.Fund.Base(),
			Amount: s.Fund.Amount(),
		},
		SocialSecurity: SocialSecurityDTO{
			Rate:   s.SocialSecurity.Rate(),
			Base:   s.SocialSecurity.Base(),
			Amount: s.SocialSecurity.Amount(),
			Teto:   s.SocialSecurity.Teto(),
			Capped: s.SocialSecurity.Capped(),
			Policy: string(s.SocialSecurity.Policy()),
		},
		Withholding: WithholdingDTO{
			Rate:               s.Withholding.Rate(),
			Base:               s.Withholding.Base(),
			Amount:             s.Withholding.Amount(),
			Exempt:             s.Withholding.Exempt(),
			DeductibleParcel:   s.Withholding.DeductibleParcel(),
			DependentDeduction: s.Withholding.DependentDeduction(),
			Due:                s.Withholding.Due(),
		},
		TotalEarnings:   s.TotalEarnings,
		TotalDeductions: s.TotalDeductions,
		NetAmount:       s.NetAmount,
	}
}

func toRecordDTO(r payslip.Record) PayslipRecordDTO {
	return PayslipRecordDTO{
		ID:              r.ID,
		EmployeeCode:    r.EmployeeCode,
		Competency:      r.Competency,
		TotalEarnings:   r.TotalEarnings,
		TotalDeductions: r.TotalDeductions,
		NetAmount:       r.NetAmount,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}
}
