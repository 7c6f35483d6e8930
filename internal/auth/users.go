package auth

import (
	"sort"
	"strings"

	"github.com/mipastel/pedidos-backend/pkg/enums"
)

// User is an account allowed to sign in. Admins have no branch.
type User struct {
	Username     string
	PasswordHash string
	DisplayName  string
	Branch       enums.Branch
	Role         enums.Role
}

// Credential is a default account with its provisioning password.
type Credential struct {
	Username    string
	Password    string
	DisplayName string
	Branch      enums.Branch
	Role        enums.Role
}

// AdminUsername is the single administrator account.
const AdminUsername = "admin"

// DefaultCredentials is the account set provisioned on first run: one
// operator per branch slot plus the administrator.
func DefaultCredentials() []Credential {
	op := func(username, password string, branch enums.Branch) Credential {
		return Credential{
			Username:    username,
			Password:    password,
			DisplayName: "Sucursal " + string(branch),
			Branch:      branch,
			Role:        enums.RoleOperator,
		}
	}
	return []Credential{
		op("jutiapa1", "jut1pass", enums.BranchJutiapa1),
		op("jutiapa2", "jut2pass", enums.BranchJutiapa2),
		op("jutiapa3", "jut3pass", enums.BranchJutiapa3),
		op("progreso", "progpass", enums.BranchProgreso),
		op("quesada", "quespass", enums.BranchQuesada),
		op("acatempa", "acatpass", enums.BranchAcatempa),
		op("yupiltepeque", "yupepass", enums.BranchYupiltepeque),
		op("atescatempa", "atespass", enums.BranchAtescatempa),
		op("adelanto", "adelpass", enums.BranchAdelanto),
		op("jerez", "jerpass", enums.BranchJerez),
		op("comapa", "comapass", enums.BranchComapa),
		op("carina", "caripass", enums.BranchCarina),
		{
			Username:    AdminUsername,
			Password:    "admin123",
			DisplayName: "Administrador",
			Role:        enums.RoleAdmin,
		},
	}
}

// Directory is the read-only user table built at startup.
type Directory struct {
	users map[string]User
}

// NewDirectory joins the default account metadata with the provisioned hashes.
// Accounts without a hash are left out and cannot sign in.
func NewDirectory(creds []Credential, hashes map[string]string) *Directory {
	users := make(map[string]User, len(creds))
	for _, c := range creds {
		hash, ok := hashes[c.Username]
		if !ok || hash == "" {
			continue
		}
		users[c.Username] = User{
			Username:     c.Username,
			PasswordHash: hash,
			DisplayName:  c.DisplayName,
			Branch:       c.Branch,
			Role:         c.Role,
		}
	}
	return &Directory{users: users}
}

// Lookup finds a user by exact username.
func (d *Directory) Lookup(username string) (User, bool) {
	if d == nil {
		return User{}, false
	}
	u, ok := d.users[strings.TrimSpace(username)]
	return u, ok
}

// Usernames lists the known accounts in sorted order.
func (d *Directory) Usernames() []string {
	out := make([]string, 0, len(d.users))
	for name := range d.users {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
