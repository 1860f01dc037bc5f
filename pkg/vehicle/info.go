package vehicle

import (
	"context"
	"time"

	"github.com/bluelinky/bluelink/pkg/form"
	"github.com/bluelinky/bluelink/pkg/protocol"
)

const usageDateLayout = "20060102"

// UsageHistoryStart is the earliest date the usage service reports on.
var UsageHistoryStart = time.Date(2014, time.April, 1, 0, 0, 0, 0, time.UTC)

func (v *Vehicle) query(ctx context.Context, endpoint, service string, path ...string) (*protocol.Result, error) {
	return v.execute(ctx, endpoint, form.New("service", service), path...)
}

// AccountInfo fetches the owner dashboard summary.
func (v *Vehicle) AccountInfo(ctx context.Context) (*protocol.Result, error) {
	return v.query(ctx, v.endpoints.MyAccount, "getOwnerInfoDashboard", resultPath)
}

// OwnerInfo fetches the owner profile, including the OwnersVehiclesInfo list.
func (v *Vehicle) OwnerInfo(ctx context.Context) (*protocol.Result, error) {
	return v.query(ctx, v.endpoints.MyAccount, "getOwnerInfoService", resultPath)
}

// Features fetches the enrollment feature list as a list of {featureName, featureStatus}
// objects. Use HasFeature for the list loaded when the vehicle was created.
func (v *Vehicle) Features(ctx context.Context) (*protocol.Result, error) {
	return v.query(ctx, v.endpoints.EnrollmentStatus, "getEnrollment", "FEATURE_DETAILS", "featureDetails")
}

// ServiceInfo fetches the owner's vehicle service records.
func (v *Vehicle) ServiceInfo(ctx context.Context) (*protocol.Result, error) {
	return v.query(ctx, v.endpoints.MyAccount, "getOwnersVehiclesInfoService", "OwnerInfo")
}

// PinStatus fetches the PIN lockout status.
func (v *Vehicle) PinStatus(ctx context.Context) (*protocol.Result, error) {
	return v.query(ctx, v.endpoints.MyAccount, "getpinstatus", resultPath)
}

// SubscriptionStatus fetches the product catalog of connected-service packages.
func (v *Vehicle) SubscriptionStatus(ctx context.Context) (*protocol.Result, error) {
	return v.query(ctx, v.endpoints.Subscriptions, "getproductCatalogDetails", resultPath, "OUT_DATA", "PRODUCTCATALOG")
}

// Messages fetches the message center inbox.
func (v *Vehicle) Messages(ctx context.Context) (*protocol.Result, error) {
	return v.query(ctx, v.endpoints.MessageCenter, "messagecenterservices", resultPath, "results")
}

// APIUsageStatus fetches remote service usage between from and to, inclusive. A zero from
// defaults to UsageHistoryStart and a zero to defaults to today.
func (v *Vehicle) APIUsageStatus(ctx context.Context, from, to time.Time) (*protocol.Result, error) {
	if from.IsZero() {
		from = UsageHistoryStart
	}
	if to.IsZero() {
		to = time.Now()
	}
	fields := form.New(
		"startdate", from.Format(usageDateLayout),
		"enddate", to.Format(usageDateLayout),
		"service", "getUsageStats",
	)
	return v.execute(ctx, v.endpoints.UsageStats, fields, resultPath, "OUT_DATA")
}
