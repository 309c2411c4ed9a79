package install

// Step is one shell command in an installation sequence, with a
// human-readable description shown while it runs.
type Step struct {
	Description string
	Command     string
}

// Recipe is the installation procedure for one operating system.
type Recipe struct {
	// Name labels the package manager, e.g. "apt (Ubuntu/Debian)".
	Name  string
	Steps []Step
}

// recipes maps /etc/os-release IDs (or "macos") to install procedures.
var recipes = map[string]Recipe{
	"ubuntu": {
		Name: "apt (Ubuntu/Debian)",
		Steps: []Step{
			{"Updating package list", "sudo apt update"},
			{"Installing PostgreSQL", "sudo apt install -y postgresql postgresql-contrib"},
			{"Starting PostgreSQL service", "sudo systemctl start postgresql"},
			{"Enabling PostgreSQL service", "sudo systemctl enable postgresql"},
		},
	},
	"debian": {
		Name: "apt (Debian)",
		Steps: []Step{
			{"Updating package list", "sudo apt update"},
			{"Installing PostgreSQL", "sudo apt install -y postgresql postgresql-contrib"},
			{"Starting PostgreSQL service", "sudo systemctl start postgresql"},
			{"Enabling PostgreSQL service", "sudo systemctl enable postgresql"},
		},
	},
	"centos": {
		Name: "yum (CentOS/RHEL)",
		Steps: []Step{
			{"Installing PostgreSQL", "sudo yum install -y postgresql-server postgresql-contrib"},
			{"Initializing database", "sudo postgresql-setup initdb"},
			{"Starting PostgreSQL service", "sudo systemctl start postgresql"},
			{"Enabling PostgreSQL service", "sudo systemctl enable postgresql"},
		},
	},
	"rhel": {
		Name: "yum (Red Hat)",
		Steps: []Step{
			{"Installing PostgreSQL", "sudo yum install -y postgresql-server postgresql-contrib"},
			{"Initializing database", "sudo postgresql-setup initdb"},
			{"Starting PostgreSQL service", "sudo systemctl start postgresql"},
			{"Enabling PostgreSQL service", "sudo systemctl enable postgresql"},
		},
	},
	"fedora": {
		Name: "dnf (Fedora)",
		Steps: []Step{
			{"Installing PostgreSQL", "sudo dnf install -y postgresql-server postgresql-contrib"},
			{"Initializing database", "sudo postgresql-setup --initdb"},
			{"Starting PostgreSQL service", "sudo systemctl start postgresql"},
			{"Enabling PostgreSQL service", "sudo systemctl enable postgresql"},
		},
	},
	"alpine": {
		Name: "apk (Alpine Linux)",
		Steps: []Step{
			{"Updating package index", "sudo apk update"},
			{"Installing PostgreSQL", "sudo apk add postgresql postgresql-contrib"},
			{"Initializing database", "sudo -u postgres initdb -D /var/lib/postgresql/data"},
			{"Starting PostgreSQL service", "sudo rc-service postgresql start"},
			{"Adding to startup", "sudo rc-update add postgresql"},
		},
	},
	"macos": {
		Name: "Homebrew (macOS)",
		Steps: []Step{
			{"Installing PostgreSQL", "brew install postgresql"},
			{"Starting PostgreSQL service", "brew services start postgresql"},
		},
	},
}

// RecipeFor returns the installation recipe for an OS ID.
func RecipeFor(osID string) (Recipe, bool) {
	r, ok := recipes[osID]
	return r, ok
}

// LinuxManualInstructions are printed instead of running privileged
// package installs on the local machine.
const LinuxManualInstructions = `Please install PostgreSQL manually:

Ubuntu/Debian:
  sudo apt update
  sudo apt install postgresql postgresql-contrib
  sudo systemctl start postgresql
  sudo systemctl enable postgresql

CentOS/RHEL:
  sudo yum install postgresql postgresql-server
  sudo postgresql-setup initdb
  sudo systemctl start postgresql
  sudo systemctl enable postgresql`
