package protocol

const (
	// DefaultHost serves the US owners site.
	DefaultHost = "owners.hyundaiusa.com"

	// DashboardURL is sent with every vehicle request. The vendor expects the page the request
	// would have originated from in a browser session.
	DashboardURL = "https://" + DefaultHost + "/us/en/page/dashboard.html"
)

// Endpoints lists the URLs of the vendor services used by this library.
type Endpoints struct {
	Token            string `mapstructure:"token" json:"token"`
	RemoteAction     string `mapstructure:"remote_action" json:"remote_action"`
	Status           string `mapstructure:"status" json:"status"`
	Health           string `mapstructure:"health" json:"health"`
	UsageStats       string `mapstructure:"usage_stats" json:"usage_stats"`
	MessageCenter    string `mapstructure:"message_center" json:"message_center"`
	MyAccount        string `mapstructure:"my_account" json:"my_account"`
	EnrollmentStatus string `mapstructure:"enrollment_status" json:"enrollment_status"`
	Subscriptions    string `mapstructure:"subscriptions" json:"subscriptions"`
}

// DefaultEndpoints returns the endpoints of the US owners site.
func DefaultEndpoints() Endpoints {
	return EndpointsForHost(DefaultHost)
}

// EndpointsForHost returns the standard endpoint layout served from host. Used in tests and when
// the vendor moves its servlets to a different domain.
func EndpointsForHost(host string) Endpoints {
	base := "https://" + host
	return Endpoints{
		Token:            base + "/etc/designs/ownercommon/us/token.json",
		RemoteAction:     base + "/bin/common/remoteAction",
		Status:           base + "/bin/common/enrollmentFeature",
		Health:           base + "/bin/common/healthmonitoring",
		UsageStats:       base + "/bin/common/usagestats",
		MessageCenter:    base + "/bin/common/messagecenterservice",
		MyAccount:        base + "/bin/common/MyAccountServlet",
		EnrollmentStatus: base + "/bin/common/enrollmentStatus",
		Subscriptions:    base + "/bin/common/subscriptions",
	}
}

// Merge returns e with every empty field replaced by the corresponding field of defaults.
func (e Endpoints) Merge(defaults Endpoints) Endpoints {
	pick := func(value, fallback string) string {
		if value == "" {
			return fallback
		}
		return value
	}
	return Endpoints{
		Token:            pick(e.Token, defaults.Token),
		RemoteAction:     pick(e.RemoteAction, defaults.RemoteAction),
		Status:           pick(e.Status, defaults.Status),
		Health:           pick(e.Health, defaults.Health),
		UsageStats:       pick(e.UsageStats, defaults.UsageStats),
		MessageCenter:    pick(e.MessageCenter, defaults.MessageCenter),
		MyAccount:        pick(e.MyAccount, defaults.MyAccount),
		EnrollmentStatus: pick(e.EnrollmentStatus, defaults.EnrollmentStatus),
		Subscriptions:    pick(e.Subscriptions, defaults.Subscriptions),
	}
}
