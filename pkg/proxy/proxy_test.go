package proxy_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/bluelinky/bluelink/mocks"
	"github.com/bluelinky/bluelink/pkg/protocol"
	"github.com/bluelinky/bluelink/pkg/proxy"
	"github.com/bluelinky/bluelink/pkg/vehicle"
)

const (
	vin = "KMHTEST0000000001"
	pin = "1234"
)

var success = &protocol.Result{Status: protocol.StatusSuccess, Result: []byte(`{"ok":true}`)}

var _ = Describe("Proxy", func() {
	var (
		ctrl        *gomock.Controller
		p           *proxy.Proxy
		mockAccount *mocks.ProxyAccount
	)

	sendRequest := func(method, path string, body []byte) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		rr := httptest.NewRecorder()
		p.ServeHTTP(rr, req)
		return rr
	}

	readyVehicle := func() *mocks.ProxyVehicle {
		car := mocks.NewProxyVehicle(ctrl)
		car.EXPECT().Wait(gomock.Any()).Return(nil).AnyTimes()
		car.EXPECT().BootstrapErr().Return(nil).AnyTimes()
		return car
	}

	BeforeEach(func() {
		var err error
		ctrl = gomock.NewController(GinkgoT())
		mockAccount = mocks.NewProxyAccount(ctrl)
		p, err = proxy.New(context.Background(), mockAccount, nil)
		Expect(err).NotTo(HaveOccurred())
		p.PIN = pin
		DeferCleanup(func() {
			ctrl.Finish()
		})
	})

	Context("vehicle commands", func() {
		It("rejects malformed VINs", func() {
			rr := sendRequest(http.MethodPost, "/api/1/vehicles/ABC/command/door_lock", nil)
			Expect(rr.Code).To(Equal(http.StatusNotFound))
		})

		It("rejects unknown commands", func() {
			rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/self_destruct", vin), nil)
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(rr.Body.String()).To(ContainSubstring("unknown command"))
		})

		It("rejects invalid JSON", func() {
			rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/remote_start", vin), []byte("{"))
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns the vendor result", func() {
			car := readyVehicle()
			car.EXPECT().Lock(gomock.Any()).Return(success, nil)
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil)

			rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/door_lock", vin), nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(MatchJSON(`{"response":{"result":{"ok":true},"status":"Z:Success","errorMessage":""}}`))
		})

		It("reuses vehicles between requests", func() {
			car := readyVehicle()
			car.EXPECT().Unlock(gomock.Any()).Return(success, nil).Times(2)
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil).Times(1)

			for i := 0; i < 2; i++ {
				rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/door_unlock", vin), nil)
				Expect(rr.Code).To(Equal(http.StatusOK))
			}
		})

		It("uses the PIN header when present", func() {
			car := readyVehicle()
			car.EXPECT().FlashLights(gomock.Any()).Return(success, nil)
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, "9999").Return(car, nil)

			req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/flash_lights", vin), nil)
			req.Header.Set(proxy.PINHeader, "9999")
			rr := httptest.NewRecorder()
			p.ServeHTTP(rr, req)
			Expect(rr.Code).To(Equal(http.StatusOK))
		})

		It("reloads the vehicle when the PIN header changes", func() {
			first := readyVehicle()
			first.EXPECT().Lock(gomock.Any()).Return(success, nil).Times(1)
			second := readyVehicle()
			second.EXPECT().Lock(gomock.Any()).Return(success, nil).Times(2)
			gomock.InOrder(
				mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, "0000").Return(first, nil),
				mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, "1234").Return(second, nil),
			)

			for _, header := range []string{"0000", "1234", "1234"} {
				req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/door_lock", vin), nil)
				req.Header.Set(proxy.PINHeader, header)
				rr := httptest.NewRecorder()
				p.ServeHTTP(rr, req)
				Expect(rr.Code).To(Equal(http.StatusOK))
			}
		})

		It("passes start parameters", func() {
			car := readyVehicle()
			car.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, config *vehicle.StartConfig) (*protocol.Result, error) {
				Expect(config.AirControl).To(BeFalse())
				Expect(config.Duration).To(Equal(5))
				Expect(config.Temperature).To(Equal(70.0))
				Expect(config.SeatHeaters.DriverSeatHeatState).To(Equal("2"))
				return success, nil
			})
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil)

			rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/remote_start", vin), []byte(`{"air_control":false,"duration":5}`))
			Expect(rr.Code).To(Equal(http.StatusOK))
		})

		It("passes points of interest", func() {
			car := readyVehicle()
			car.EXPECT().SendPointOfInterest(gomock.Any(), vehicle.PointOfInterest{
				Address:  "1 Main St",
				Location: vehicle.Location{Latitude: 1.5, Longitude: -2.5},
			}).Return(success, nil)
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil)

			rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/send_poi", vin), []byte(`{"address":"1 Main St","lat":1.5,"long":-2.5}`))
			Expect(rr.Code).To(Equal(http.StatusOK))
		})

		It("rejects points of interest without coordinates", func() {
			rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/send_poi", vin), []byte(`{"address":"1 Main St"}`))
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
			Expect(rr.Body.String()).To(ContainSubstring("missing lat param"))
		})

		DescribeTable("maps errors to status codes",
			func(err error, code int) {
				car := readyVehicle()
				car.EXPECT().Panic(gomock.Any()).Return(nil, err)
				mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil)

				rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/honk_horn", vin), nil)
				Expect(rr.Code).To(Equal(code))
				Expect(rr.Body.String()).To(ContainSubstring(err.Error()))
			},
			Entry("unsupported feature", &protocol.UnsupportedFeatureError{Feature: vehicle.FeatureHornAndLights}, http.StatusUnprocessableEntity),
			Entry("unsupported generation", &protocol.UnsupportedGenerationError{Generation: 1, Operation: "status"}, http.StatusUnprocessableEntity),
			Entry("PIN locked", protocol.ErrPinLocked, http.StatusLocked),
			Entry("transport", &protocol.TransportError{Code: 500, Message: "oops"}, http.StatusBadGateway),
			Entry("timeout", fmt.Errorf("request failed: %w", context.DeadlineExceeded), http.StatusGatewayTimeout),
			Entry("other", errors.New("unexpected"), http.StatusInternalServerError),
		)

		It("reports vehicles that are not on the account", func() {
			car := mocks.NewProxyVehicle(ctrl)
			car.EXPECT().Wait(gomock.Any()).Return(nil).Times(2)
			car.EXPECT().BootstrapErr().Return(&protocol.VehicleNotFoundError{VIN: vin}).Times(2)
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil).Times(2)

			for i := 0; i < 2; i++ {
				rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/door_lock", vin), nil)
				Expect(rr.Code).To(Equal(http.StatusNotFound))
			}
		})

		It("reports vehicles that fail to load", func() {
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(nil, errors.New("a VIN is required"))
			rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/door_lock", vin), nil)
			Expect(rr.Code).To(Equal(http.StatusInternalServerError))
		})

		It("serializes requests to the same vehicle", func() {
			var active, maxActive int32
			car := readyVehicle()
			car.EXPECT().Lock(gomock.Any()).DoAndReturn(func(context.Context) (*protocol.Result, error) {
				n := atomic.AddInt32(&active, 1)
				for {
					m := atomic.LoadInt32(&maxActive)
					if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return success, nil
			}).Times(4)
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil)

			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/door_lock", vin), nil)
					Expect(rr.Code).To(Equal(http.StatusOK))
				}()
			}
			wg.Wait()
			Expect(atomic.LoadInt32(&maxActive)).To(Equal(int32(1)))
		})

		It("times out waiting for a vehicle to load", func() {
			p.Timeout = 10 * time.Millisecond
			car := mocks.NewProxyVehicle(ctrl)
			car.EXPECT().Wait(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
				<-ctx.Done()
				return fmt.Errorf("%w: %w", protocol.ErrNotReady, ctx.Err())
			})
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil)

			rr := sendRequest(http.MethodPost, fmt.Sprintf("/api/1/vehicles/%s/command/door_lock", vin), nil)
			Expect(rr.Code).To(Equal(http.StatusGatewayTimeout))
		})
	})

	Context("vehicle data", func() {
		It("passes the refresh flag", func() {
			car := readyVehicle()
			car.EXPECT().Status(gomock.Any(), true).Return(success, nil)
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil)

			rr := sendRequest(http.MethodGet, fmt.Sprintf("/api/1/vehicles/%s/data/status?refresh=true", vin), nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
		})

		It("parses usage dates", func() {
			car := readyVehicle()
			car.EXPECT().APIUsageStatus(gomock.Any(),
				time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
				time.Time{},
			).Return(success, nil)
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil)

			rr := sendRequest(http.MethodGet, fmt.Sprintf("/api/1/vehicles/%s/data/usage?from=2020-03-01", vin), nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
		})

		It("rejects invalid dates", func() {
			rr := sendRequest(http.MethodGet, fmt.Sprintf("/api/1/vehicles/%s/data/usage?from=yesterday", vin), nil)
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns raw replies", func() {
			car := readyVehicle()
			car.EXPECT().Messages(gomock.Any()).Return(&protocol.Result{Raw: "maintenance"}, nil)
			mockAccount.EXPECT().GetVehicle(gomock.Any(), vin, pin).Return(car, nil)

			rr := sendRequest(http.MethodGet, fmt.Sprintf("/api/1/vehicles/%s/data/messages", vin), nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(ContainSubstring(`"raw":"maintenance"`))
		})

		It("does not accept commands as queries", func() {
			rr := sendRequest(http.MethodGet, fmt.Sprintf("/api/1/vehicles/%s/data/door_lock", vin), nil)
			Expect(rr.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("metrics", func() {
		It("counts requests by route", func() {
			sendRequest(http.MethodPost, "/api/1/vehicles/ABC/command/door_lock", nil)
			sendRequest(http.MethodGet, "/nowhere", nil)

			rr := sendRequest(http.MethodGet, "/metrics", nil)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(ContainSubstring(`bluelink_proxy_requests_total{code="404",route="/api/1/vehicles/:vin/command/:command"} 1`))
			Expect(rr.Body.String()).To(ContainSubstring(`bluelink_proxy_requests_total{code="404",route="unmatched"} 1`))
		})
	})
})
