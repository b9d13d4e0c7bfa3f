/*
scenarios.go - Demo payslips for testing and demonstrations

PURPOSE:

	Provides pre-built payslip documents that exercise specific engine
	behavior. Loading a scenario issues its payslip into the archive, so the
	archive listing, recompute and PDF endpoints have something to show.

AVAILABLE SCENARIOS:

	minimum-2017:      2000.00 salary, January 2017: contribution line only
	high-earner:       Salary plus overtime above the contribution ceiling
	family-deductions: Withholding reduced by three dependents
	allowance:         Allowance outside the fund and contribution bases
	historical-2010:   A 2010 competency resolved by the effective-dated tables

HOW SCENARIOS WORK:
 1. Look up the scenario's PayslipRequest
 2. Issue it like POST /api/payslips would
 3. A second load of the same scenario fails with 409 (already issued)

USAGE VIA API:

	GET  /api/scenarios/{id}   the request document, for previewing
	POST /api/scenarios/load
	{"scenario_id": "high-earner"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add the request builder to 'scenarioRequests'

SEE ALSO:
  - handlers.go: issue()
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "minimum-2017",
		Name:        "Salary 2000.00, January 2017",
		Description: "Contribution line only: withholding base falls in the exempt bracket",
	},
	{
		ID:          "high-earner",
		Name:        "High Earner",
		Description: "Earnings above the contribution ceiling: capped contribution, top withholding bracket",
	},
	{
		ID:          "family-deductions",
		Name:        "Family Deductions",
		Description: "Three dependents reduce the withholding amount",
	},
	{
		ID:          "allowance",
		Name:        "Allowance Outside Bases",
		Description: "Allowance counted for withholding only, with a caller deduction",
	},
	{
		ID:          "historical-2010",
		Name:        "Historical Competency",
		Description: "May 2010 competency resolved through the effective-dated withholding tables",
	},
}

var sampleEmployee = EmployeeDTO{
	Name:       "MARIA DA SILVA",
	Code:       "0042",
	Role:       "ANALISTA ADMINISTRATIVO",
	Occupation: "2521-05",
	Admission:  "02/03/2015",
}

func salaryLine(amount string) EarningRequest {
	return EarningRequest{LineRequest: LineRequest{Code: "0001", Description: "SALÁRIO NORMAL", Reference: "30", Amount: amount}}
}

var scenarioRequests = map[string]func() PayslipRequest{
	"minimum-2017": func() PayslipRequest {
		return PayslipRequest{
			Competency: "2017-01",
			Employee:   sampleEmployee,
			BaseSalary: "2000.00",
			Earnings:   []EarningRequest{salaryLine("2000.00")},
		}
	},
	"high-earner": func() PayslipRequest {
		emp := sampleEmployee
		emp.Name, emp.Code, emp.Role = "JOÃO PEREIRA", "0107", "GERENTE DE PROJETOS"
		return PayslipRequest{
			Competency: "2017-02",
			Employee:   emp,
			Earnings: []EarningRequest{
				salaryLine("5800.00"),
				{LineRequest: LineRequest{Code: "0150", Description: "HORAS EXTRAS 50%", Reference: "12h", Amount: "474.55"}},
			},
		}
	},
	"family-deductions": func() PayslipRequest {
		emp := sampleEmployee
		emp.Name, emp.Code = "ANA SOUZA", "0033"
		return PayslipRequest{
			Competency: "2017-03",
			Employee:   emp,
			Dependents: 3,
			Earnings:   []EarningRequest{salaryLine("5000.00")},
		}
	},
	"allowance": func() PayslipRequest {
		no := false
		emp := sampleEmployee
		emp.Name, emp.Code = "CARLOS LIMA", "0051"
		return PayslipRequest{
			Competency: "2017-04",
			Employee:   emp,
			Earnings: []EarningRequest{
				salaryLine("3000.00"),
				{
					LineRequest:    LineRequest{Code: "0300", Description: "AJUDA DE CUSTO", Amount: "1000.00"},
					Fund:           &no,
					SocialSecurity: &no,
				},
			},
			Deductions: []LineRequest{
				{Code: "0500", Description: "VALE TRANSPORTE", Reference: "6%", Amount: "180.00"},
			},
		}
	},
	"historical-2010": func() PayslipRequest {
		return PayslipRequest{
			Competency: "2010-05",
			Employee:   sampleEmployee,
			Dependents: 1,
			Earnings:   []EarningRequest{salaryLine("3000.00")},
		}
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetScenario returns a scenario's request document.
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	build, ok := scenarioRequests[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", nil)
		return
	}
	writeJSON(w, http.StatusOK, build())
}

// LoadScenario issues a scenario's payslip.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	build, ok := scenarioRequests[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	issued, err := h.issue(r.Context(), build())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, issued)
}
