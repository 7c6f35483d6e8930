package enums

import (
	"fmt"
	"strings"
)

// Branch identifies a physical store location. Names match exactly.
type Branch string

const (
	BranchJutiapa1     Branch = "Jutiapa 1"
	BranchJutiapa2     Branch = "Jutiapa 2"
	BranchJutiapa3     Branch = "Jutiapa 3"
	BranchProgreso     Branch = "Progreso"
	BranchQuesada      Branch = "Quesada"
	BranchAcatempa     Branch = "Acatempa"
	BranchYupiltepeque Branch = "Yupiltepeque"
	BranchAtescatempa  Branch = "Atescatempa"
	BranchAdelanto     Branch = "Adelanto"
	BranchJerez        Branch = "Jeréz"
	BranchComapa       Branch = "Comapa"
	BranchCarina       Branch = "Carina"
)

var validBranches = []Branch{
	BranchJutiapa1,
	BranchJutiapa2,
	BranchJutiapa3,
	BranchProgreso,
	BranchQuesada,
	BranchAcatempa,
	BranchYupiltepeque,
	BranchAtescatempa,
	BranchAdelanto,
	BranchJerez,
	BranchComapa,
	BranchCarina,
}

var branchAbbreviations = map[Branch]string{
	BranchJutiapa1:     "Jut1",
	BranchJutiapa2:     "Jut2",
	BranchJutiapa3:     "Jut3",
	BranchProgreso:     "Prog",
	BranchQuesada:      "Ques",
	BranchAcatempa:     "Acat",
	BranchYupiltepeque: "Yupi",
	BranchAtescatempa:  "Ates",
	BranchAdelanto:     "Adel",
	BranchJerez:        "Jerez",
	BranchComapa:       "Com",
	BranchCarina:       "Car",
}

// Branches returns the closed branch set in its canonical order.
func Branches() []Branch {
	out := make([]Branch, len(validBranches))
	copy(out, validBranches)
	return out
}

// String implements fmt.Stringer.
func (b Branch) String() string {
	return string(b)
}

// IsValid reports whether the value is a known Branch.
func (b Branch) IsValid() bool {
	for _, candidate := range validBranches {
		if candidate == b {
			return true
		}
	}
	return false
}

// Abbrev returns the short column token used in reports.
func (b Branch) Abbrev() string {
	if abbr, ok := branchAbbreviations[b]; ok {
		return abbr
	}
	return string(b)
}

// ParseBranch converts raw input into a Branch without normalising case or spacing.
func ParseBranch(value string) (Branch, error) {
	for _, candidate := range validBranches {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid branch %q", value)
}

// IsAllBranches reports whether a filter token means "every branch".
func IsAllBranches(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "all") || strings.EqualFold(v, "todas")
}
