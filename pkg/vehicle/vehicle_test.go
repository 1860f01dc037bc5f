package vehicle_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"github.com/bluelinky/bluelink/mocks"
	"github.com/bluelinky/bluelink/pkg/connector"
	"github.com/bluelinky/bluelink/pkg/connector/inet"
	"github.com/bluelinky/bluelink/pkg/protocol"
	"github.com/bluelinky/bluelink/pkg/vehicle"
)

var allFeaturesOn = map[string]string{
	vehicle.FeatureDoorLock:      "ON",
	vehicle.FeatureDoorUnlock:    "ON",
	vehicle.FeatureLightsOnly:    "ON",
	vehicle.FeatureHornAndLights: "ON",
}

var _ = Describe("Vehicle", func() {
	var (
		ctrl      *gomock.Controller
		session   *mocks.VehicleSession
		transport *httpmock.MockTransport
		vendor    *fakeVendor
		ctx       context.Context
	)

	newVehicle := func() *vehicle.Vehicle {
		car, err := vehicle.New(ctx, vehicle.Config{
			VIN:       testVIN,
			PIN:       testPIN,
			Session:   session,
			Transport: inet.NewConnection(&http.Client{Transport: transport}, "test"),
		})
		Expect(err).NotTo(HaveOccurred())
		Eventually(car.Ready()).Should(BeClosed())
		Expect(car.State()).To(Equal(vehicle.StateReady))
		vendor.reset()
		return car
	}

	BeforeEach(func() {
		ctx = context.Background()
		ctrl = gomock.NewController(GinkgoT())
		session = mocks.NewVehicleSession(ctrl)
		session.EXPECT().Username().Return(testUsername).AnyTimes()
		session.EXPECT().AccessToken().Return(testToken).AnyTimes()
		session.EXPECT().RefreshIfNeeded(gomock.Any()).Return(nil).AnyTimes()

		transport = httpmock.NewMockTransport()
		vendor = newFakeVendor()
		vendor.install(transport)
		vendor.reply("getEnrollment", featuresReply(allFeaturesOn))
		vendor.reply("getOwnerInfoService", ownerReply(testVIN, 2105, `"2"`, "REG1"))
	})

	Context("configuration", func() {
		It("requires a VIN", func() {
			_, err := vehicle.New(ctx, vehicle.Config{Session: session})
			Expect(err).To(MatchError(vehicle.ErrMissingVIN))
		})

		It("requires a session", func() {
			_, err := vehicle.New(ctx, vehicle.Config{VIN: testVIN})
			Expect(err).To(MatchError(vehicle.ErrMissingSession))
		})
	})

	Context("bootstrap", func() {
		It("loads the feature gate from the enrollment list", func() {
			vendor.reply("getEnrollment", featuresReply(map[string]string{
				vehicle.FeatureDoorLock:   "ON",
				vehicle.FeatureDoorUnlock: "OFF",
				"REMOTE START":            "ON",
			}))
			car := newVehicle()
			Expect(car.HasFeature(vehicle.FeatureDoorLock)).To(BeTrue())
			Expect(car.HasFeature(vehicle.FeatureDoorUnlock)).To(BeFalse())
			Expect(car.FeatureMap()).To(Equal(map[string]bool{
				vehicle.FeatureDoorLock:   true,
				vehicle.FeatureDoorUnlock: false,
				"REMOTE START":            true,
			}))
		})

		It("reports features missing from the enrollment list as disabled", func() {
			vendor.reply("getEnrollment", featuresReply(map[string]string{vehicle.FeatureDoorLock: "ON"}))
			car := newVehicle()
			Expect(car.HasFeature(vehicle.FeatureHornAndLights)).To(BeFalse())
			Expect(car.HasFeature("NOT A FEATURE")).To(BeFalse())
		})

		It("does not let callers modify the feature gate", func() {
			car := newVehicle()
			features := car.FeatureMap()
			features[vehicle.FeatureDoorLock] = false
			Expect(car.HasFeature(vehicle.FeatureDoorLock)).To(BeTrue())
		})

		It("classifies electric vehicles and reads the generation", func() {
			vendor.reply("getOwnerInfoService", ownerReply(testVIN, 1532, 1, "REG42"))
			car := newVehicle()
			Expect(car.IsElectric()).To(BeTrue())
			Expect(car.Generation()).To(Equal(vehicle.Gen1))
			Expect(car.RegistrationID()).To(Equal("REG42"))
			Expect(car.BootstrapErr()).NotTo(HaveOccurred())
		})

		It("classifies combustion vehicles", func() {
			vendor.reply("getOwnerInfoService", ownerReply(testVIN, `"2105"`, true, "REG7"))
			car := newVehicle()
			Expect(car.IsElectric()).To(BeFalse())
			Expect(car.Generation()).To(Equal(vehicle.Gen2))
			Expect(car.RegistrationID()).To(Equal("REG7"))
		})

		It("keeps defaults and reports an error when the VIN is not on the account", func() {
			vendor.reply("getOwnerInfoService", ownerReply("SOMEONEELSE000001", 1532, 1, "REG9"))
			car := newVehicle()
			Expect(car.Generation()).To(Equal(vehicle.Gen2))
			Expect(car.IsElectric()).To(BeFalse())
			Expect(car.RegistrationID()).To(BeEmpty())

			var notFound *protocol.VehicleNotFoundError
			Expect(errors.As(car.BootstrapErr(), &notFound)).To(BeTrue())
			Expect(notFound.VIN).To(Equal(testVIN))
		})

		It("becomes ready when the vendor rejects every bootstrap request", func() {
			vendor.reply("getEnrollment", `{"E_IFRESULT":"E:Failure","E_IFFAILMSG":"Service unavailable"}`)
			vendor.reply("getOwnerInfoService", `<html>maintenance</html>`)
			car := newVehicle()
			Expect(car.FeatureMap()).To(BeEmpty())
			Expect(car.Generation()).To(Equal(vehicle.Gen2))
			Expect(car.BootstrapErr()).NotTo(HaveOccurred())
		})

		It("sends the bootstrap requests through the session", func() {
			vendor.reply("getOwnerInfoService", ownerReply(testVIN, 1532, 2, "REG1"))
			car, err := vehicle.New(ctx, vehicle.Config{
				VIN:       testVIN,
				PIN:       testPIN,
				Session:   session,
				Transport: inet.NewConnection(&http.Client{Transport: transport}, "test"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(car.Wait(ctx)).To(Succeed())

			requests := vendor.received()
			Expect(requests).To(HaveLen(2))
			Expect(requests[0].service()).To(Equal("getEnrollment"))
			Expect(requests[0].URL).To(Equal(protocol.DefaultEndpoints().EnrollmentStatus))
			Expect(requests[1].service()).To(Equal("getOwnerInfoService"))
			Expect(requests[1].URL).To(Equal(protocol.DefaultEndpoints().MyAccount))
		})

		It("times out waiting for a vehicle that is still initializing", func() {
			release := make(chan struct{})
			blocking := connector.TransportFunc(func(ctx context.Context, _, _ string, _ []byte) ([]byte, error) {
				select {
				case <-release:
				case <-ctx.Done():
				}
				return []byte(okReply), nil
			})
			car, err := vehicle.New(ctx, vehicle.Config{VIN: testVIN, Session: session, Transport: blocking})
			Expect(err).NotTo(HaveOccurred())
			Expect(car.State()).To(Equal(vehicle.StateInitializing))

			waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err = car.Wait(waitCtx)
			Expect(errors.Is(err, protocol.ErrNotReady)).To(BeTrue())
			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())

			close(release)
			Eventually(car.Ready()).Should(BeClosed())
			Expect(car.State()).To(Equal(vehicle.StateReady))
		})
	})

	Context("request body", func() {
		It("sends session fields before operation fields", func() {
			car := newVehicle()
			_, err := car.Lock(ctx)
			Expect(err).NotTo(HaveOccurred())

			request := vendor.last()
			Expect(request.URL).To(Equal(protocol.DefaultEndpoints().RemoteAction))
			Expect(request.Keys).To(Equal([]string{"vin", "username", "pin", "url", "token", "gen", "regId", "service"}))
			Expect(request.Fields).To(Equal(map[string]string{
				"vin":      testVIN,
				"username": testUsername,
				"pin":      testPIN,
				"url":      protocol.DashboardURL,
				"token":    testToken,
				"gen":      "2",
				"regId":    "REG1",
				"service":  "remotelock",
			}))
		})

		It("omits the registration id until one is known", func() {
			vendor.reply("getOwnerInfoService", `{"E_IFRESULT":"E:Failure"}`)
			car := newVehicle()
			_, err := car.Health(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(vendor.last().Keys).NotTo(ContainElement("regId"))
		})
	})

	Context("feature gate", func() {
		It("rejects gated commands without contacting the vendor", func() {
			gated := gomock.NewController(GinkgoT())
			mockTransport := mocks.NewTransport(gated)
			// Bootstrap only: an empty feature list and no owner record.
			mockTransport.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
				Return([]byte(`{"E_IFRESULT":"Z:Success","FEATURE_DETAILS":{"featureDetails":[]},"RESPONSE_STRING":{}}`), nil).
				Times(2)

			car, err := vehicle.New(ctx, vehicle.Config{VIN: testVIN, Session: session, Transport: mockTransport})
			Expect(err).NotTo(HaveOccurred())
			Expect(car.Wait(ctx)).To(Succeed())

			for _, command := range []func(context.Context) (*protocol.Result, error){car.Lock, car.Unlock, car.FlashLights, car.Panic} {
				result, err := command(ctx)
				Expect(result).To(BeNil())
				var unsupported *protocol.UnsupportedFeatureError
				Expect(errors.As(err, &unsupported)).To(BeTrue())
			}
			gated.Finish()
		})

		It("names the missing feature", func() {
			vendor.reply("getEnrollment", featuresReply(map[string]string{vehicle.FeatureDoorLock: "OFF"}))
			car := newVehicle()
			_, err := car.Lock(ctx)
			Expect(err).To(MatchError(ContainSubstring(vehicle.FeatureDoorLock)))
			Expect(vendor.received()).To(BeEmpty())
		})

		It("does not gate remote start and stop", func() {
			vendor.reply("getEnrollment", featuresReply(map[string]string{}))
			car := newVehicle()
			_, err := car.Start(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = car.Stop(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(vendor.received()).To(HaveLen(2))
		})
	})

	Context("remote actions", func() {
		DescribeTable("uses the vendor service name",
			func(run func(*vehicle.Vehicle) (*protocol.Result, error), service string) {
				car := newVehicle()
				result, err := run(car)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Status).To(Equal(protocol.StatusSuccess))
				Expect(vendor.last().service()).To(Equal(service))
				Expect(vendor.last().URL).To(Equal(protocol.DefaultEndpoints().RemoteAction))
			},
			Entry("lock", func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.Lock(context.Background()) }, "remotelock"),
			Entry("unlock", func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.Unlock(context.Background()) }, "remoteunlock"),
			Entry("flash lights", func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.FlashLights(context.Background()) }, "light"),
			Entry("panic", func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.Panic(context.Background()) }, "horn"),
			Entry("stop", func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.Stop(context.Background()) }, "ignitionstop"),
		)

		It("returns the vendor result fields", func() {
			vendor.reply("remotelock", `{"E_IFRESULT":"E:Failure","E_IFFAILMSG":"Vehicle is asleep","RESPONSE_STRING":{"code":"7"}}`)
			car := newVehicle()
			result, err := car.Lock(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failed()).To(BeTrue())
			Expect(result.ErrorMessage).To(Equal("Vehicle is asleep"))
			Expect(result.Result).To(MatchJSON(`{"code":"7"}`))
		})

		It("fails when the PIN is locked, even inside valid JSON", func() {
			vendor.reply("remotelock", `{"E_IFRESULT":"E:Failure","E_IFFAILMSG":"PIN Locked"}`)
			car := newVehicle()
			_, err := car.Lock(ctx)
			Expect(err).To(MatchError(protocol.ErrPinLocked))
		})

		It("returns non-JSON replies as raw text", func() {
			vendor.reply("remoteunlock", "Service temporarily unavailable")
			car := newVehicle()
			result, err := car.Unlock(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsRaw()).To(BeTrue())
			Expect(result.Raw).To(Equal("Service temporarily unavailable"))
			var payload map[string]interface{}
			Expect(result.Decode(&payload)).To(MatchError(protocol.ErrMalformedResponse))
		})

		It("sends points of interest as JSON", func() {
			car := newVehicle()
			poi := vehicle.PointOfInterest{
				Address:  "10550 Talbert Ave, Fountain Valley, CA",
				PlaceID:  "place-1",
				Location: vehicle.Location{Latitude: 33.7, Longitude: -117.9},
			}
			_, err := car.SendPointOfInterest(ctx, poi)
			Expect(err).NotTo(HaveOccurred())
			Expect(vendor.last().service()).To(Equal("sendPOI"))
			Expect(vendor.last().Fields["poiInfo"]).To(MatchJSON(
				`{"address":"10550 Talbert Ave, Fountain Valley, CA","placeId":"place-1","location":{"lat":33.7,"long":-117.9}}`))
		})
	})

	Context("remote start", func() {
		It("sends the default climate settings", func() {
			car := newVehicle()
			_, err := car.Start(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			request := vendor.last()
			Expect(request.service()).To(Equal("ignitionstart"))
			Expect(request.Keys[len(request.Keys)-7:]).To(Equal([]string{
				"service", "airCtrl", "igniOnDuration", "airTempvalue", "defrost", "heating1", "seatHeaterVentInfo",
			}))
			Expect(request.Fields["airCtrl"]).To(Equal("true"))
			Expect(request.Fields["igniOnDuration"]).To(Equal("10"))
			Expect(request.Fields["airTempvalue"]).To(Equal("70"))
			Expect(request.Fields["defrost"]).To(Equal("false"))
			Expect(request.Fields["heating1"]).To(Equal("false"))
			Expect(request.Fields["seatHeaterVentInfo"]).To(MatchJSON(`{"drvSeatHeatState":"2"}`))
		})

		It("keeps the other defaults when climate control is disabled", func() {
			car := newVehicle()
			config := vehicle.DefaultStartConfig()
			config.AirControl = false
			_, err := car.Start(ctx, config)
			Expect(err).NotTo(HaveOccurred())

			fields := vendor.last().Fields
			Expect(fields["airCtrl"]).To(Equal("false"))
			Expect(fields["igniOnDuration"]).To(Equal("10"))
			Expect(fields["airTempvalue"]).To(Equal("70"))
			Expect(fields["defrost"]).To(Equal("false"))
			Expect(fields["heating1"]).To(Equal("false"))
			Expect(fields["seatHeaterVentInfo"]).To(MatchJSON(`{"drvSeatHeatState":"2"}`))
		})

		It("fills unset values of a partial config from the defaults", func() {
			car := newVehicle()
			config := &vehicle.StartConfig{AirControl: false}
			_, err := car.Start(ctx, config)
			Expect(err).NotTo(HaveOccurred())

			fields := vendor.last().Fields
			Expect(fields["airCtrl"]).To(Equal("false"))
			Expect(fields["igniOnDuration"]).To(Equal("10"))
			Expect(fields["airTempvalue"]).To(Equal("70"))
			Expect(fields["seatHeaterVentInfo"]).To(MatchJSON(`{"drvSeatHeatState":"2"}`))
			Expect(config.Duration).To(BeZero())
		})

		It("uses the climate services on electric vehicles", func() {
			vendor.reply("getOwnerInfoService", ownerReply(testVIN, 1532, 2, "EV1"))
			car := newVehicle()
			_, err := car.Start(ctx, &vehicle.StartConfig{AirControl: true, Duration: 5, Temperature: 68.5, Defrost: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(vendor.last().service()).To(Equal("postRemoteFatcStart"))
			Expect(vendor.last().Fields["airTempvalue"]).To(Equal("68.5"))
			Expect(vendor.last().Fields["defrost"]).To(Equal("true"))

			_, err = car.Stop(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(vendor.last().service()).To(Equal("postRemoteFatcStop"))
		})
	})

	Context("status", func() {
		It("is rejected on gen 1 vehicles without contacting the vendor", func() {
			vendor.reply("getOwnerInfoService", ownerReply(testVIN, 2105, 1, "G1"))
			car := newVehicle()
			result, err := car.Status(ctx, true)
			Expect(result).To(BeNil())
			var unsupported *protocol.UnsupportedGenerationError
			Expect(errors.As(err, &unsupported)).To(BeTrue())
			Expect(unsupported.Generation).To(Equal(vehicle.Gen1))
			Expect(vendor.received()).To(BeEmpty())
		})

		It("uses the plural services key and the refresh flag", func() {
			vendor.reply("getVehicleStatus", `{"E_IFRESULT":"Z:Success","RESPONSE_STRING":{"vehicleStatus":{"doorLock":true,"engine":false}}}`)
			car := newVehicle()
			result, err := car.Status(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Result).To(MatchJSON(`{"doorLock":true,"engine":false}`))

			request := vendor.last()
			Expect(request.URL).To(Equal(protocol.DefaultEndpoints().Status))
			Expect(request.Keys).NotTo(ContainElement("service"))
			Expect(request.Fields["services"]).To(Equal("getVehicleStatus"))
			Expect(request.Fields["refresh"]).To(Equal("true"))
		})
	})

	Context("account queries", func() {
		type query struct {
			run      func(*vehicle.Vehicle) (*protocol.Result, error)
			endpoint func(protocol.Endpoints) string
			service  string
			reply    string
			payload  string
		}
		background := context.Background()

		DescribeTable("extracts the payload from the vendor reply",
			func(q query) {
				vendor.reply(q.service, q.reply)
				car := newVehicle()
				result, err := q.run(car)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Result).To(MatchJSON(q.payload))
				Expect(vendor.last().service()).To(Equal(q.service))
				Expect(vendor.last().URL).To(Equal(q.endpoint(protocol.DefaultEndpoints())))
			},
			Entry("health", query{
				run:      func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.Health(background) },
				endpoint: func(e protocol.Endpoints) string { return e.Health },
				service:  "getRecMaintenanceTimeline",
				reply:    `{"E_IFRESULT":"Z:Success","RESPONSE_STRING":{"timeline":[1,2]}}`,
				payload:  `{"timeline":[1,2]}`,
			}),
			Entry("messages", query{
				run:      func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.Messages(background) },
				endpoint: func(e protocol.Endpoints) string { return e.MessageCenter },
				service:  "messagecenterservices",
				reply:    `{"E_IFRESULT":"Z:Success","RESPONSE_STRING":{"results":[{"id":1}]}}`,
				payload:  `[{"id":1}]`,
			}),
			Entry("account info", query{
				run:      func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.AccountInfo(background) },
				endpoint: func(e protocol.Endpoints) string { return e.MyAccount },
				service:  "getOwnerInfoDashboard",
				reply:    `{"E_IFRESULT":"Z:Success","RESPONSE_STRING":{"name":"Owner"}}`,
				payload:  `{"name":"Owner"}`,
			}),
			Entry("features", query{
				run:      func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.Features(background) },
				endpoint: func(e protocol.Endpoints) string { return e.EnrollmentStatus },
				service:  "getEnrollment",
				reply:    featuresReply(map[string]string{"DOOR LOCK": "ON"}),
				payload:  `[{"featureName":"DOOR LOCK","featureStatus":"ON"}]`,
			}),
			Entry("service info", query{
				run:      func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.ServiceInfo(background) },
				endpoint: func(e protocol.Endpoints) string { return e.MyAccount },
				service:  "getOwnersVehiclesInfoService",
				reply:    `{"E_IFRESULT":"Z:Success","OwnerInfo":{"dealer":"X"}}`,
				payload:  `{"dealer":"X"}`,
			}),
			Entry("pin status", query{
				run:      func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.PinStatus(background) },
				endpoint: func(e protocol.Endpoints) string { return e.MyAccount },
				service:  "getpinstatus",
				reply:    `{"E_IFRESULT":"Z:Success","RESPONSE_STRING":{"remainingAttempts":"3"}}`,
				payload:  `{"remainingAttempts":"3"}`,
			}),
			Entry("subscriptions", query{
				run:      func(v *vehicle.Vehicle) (*protocol.Result, error) { return v.SubscriptionStatus(background) },
				endpoint: func(e protocol.Endpoints) string { return e.Subscriptions },
				service:  "getproductCatalogDetails",
				reply:    `{"E_IFRESULT":"Z:Success","RESPONSE_STRING":{"OUT_DATA":{"PRODUCTCATALOG":[{"sku":"A"}]}}}`,
				payload:  `[{"sku":"A"}]`,
			}),
			Entry("usage", query{
				run: func(v *vehicle.Vehicle) (*protocol.Result, error) {
					return v.APIUsageStatus(background, time.Time{}, time.Time{})
				},
				endpoint: func(e protocol.Endpoints) string { return e.UsageStats },
				service:  "getUsageStats",
				reply:    `{"E_IFRESULT":"Z:Success","RESPONSE_STRING":{"OUT_DATA":{"remoteStart":4}}}`,
				payload:  `{"remoteStart":4}`,
			}),
		)

		It("sends the usage date range", func() {
			car := newVehicle()
			from := time.Date(2019, time.January, 2, 0, 0, 0, 0, time.UTC)
			to := time.Date(2019, time.June, 11, 0, 0, 0, 0, time.UTC)
			_, err := car.APIUsageStatus(ctx, from, to)
			Expect(err).NotTo(HaveOccurred())
			Expect(vendor.last().Fields["startdate"]).To(Equal("20190102"))
			Expect(vendor.last().Fields["enddate"]).To(Equal("20190611"))

			_, err = car.APIUsageStatus(ctx, time.Time{}, time.Time{})
			Expect(err).NotTo(HaveOccurred())
			Expect(vendor.last().Fields["startdate"]).To(Equal("20140401"))
			Expect(vendor.last().Fields["enddate"]).To(Equal(time.Now().Format("20060102")))
		})

		It("reports an absent payload as nil", func() {
			vendor.reply("messagecenterservices", `{"E_IFRESULT":"Z:Success","RESPONSE_STRING":{}}`)
			car := newVehicle()
			result, err := car.Messages(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Result).To(BeNil())
			Expect(result.Payload()).To(BeNil())
		})

		It("decodes payloads", func() {
			car := newVehicle()
			result, err := car.OwnerInfo(ctx)
			Expect(err).NotTo(HaveOccurred())
			var info struct {
				Vehicles []json.RawMessage `json:"OwnersVehiclesInfo"`
			}
			Expect(result.Decode(&info)).To(Succeed())
			Expect(info.Vehicles).To(HaveLen(2))
		})
	})

	Context("failures", func() {
		It("does not dispatch when the session cannot be refreshed", func() {
			refreshErr := errors.New("token revoked")
			failing := mocks.NewVehicleSession(ctrl)
			failing.EXPECT().RefreshIfNeeded(gomock.Any()).Return(refreshErr).AnyTimes()
			failing.EXPECT().Username().Return(testUsername).AnyTimes()
			failing.EXPECT().AccessToken().Return(testToken).AnyTimes()

			other, err := vehicle.New(ctx, vehicle.Config{
				VIN:       testVIN,
				Session:   failing,
				Transport: connector.TransportFunc(func(context.Context, string, string, []byte) ([]byte, error) { return []byte(okReply), nil }),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Wait(ctx)).To(Succeed())
			_, err = other.Health(ctx)
			Expect(err).To(MatchError(refreshErr))
		})

		It("reports HTTP failures as transport errors", func() {
			car := newVehicle()
			transport.RegisterResponder(http.MethodPost, protocol.DefaultEndpoints().Health,
				httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))
			_, err := car.Health(ctx)
			var transportErr *protocol.TransportError
			Expect(errors.As(err, &transportErr)).To(BeTrue())
			Expect(transportErr.Code).To(Equal(http.StatusBadGateway))
			Expect(protocol.Temporary(err)).To(BeTrue())
		})
	})

	Context("metrics", func() {
		It("counts requests by service", func() {
			registry := prometheus.NewRegistry()
			metrics, err := vehicle.NewMetrics(registry)
			Expect(err).NotTo(HaveOccurred())
			car, err := vehicle.New(ctx, vehicle.Config{
				VIN:       testVIN,
				PIN:       testPIN,
				Session:   session,
				Transport: inet.NewConnection(&http.Client{Transport: transport}, "test"),
				Metrics:   metrics,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(car.Wait(ctx)).To(Succeed())
			_, err = car.Panic(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(testutil.CollectAndCount(registry, "bluelink_requests_total")).To(Equal(3))
		})
	})
})
