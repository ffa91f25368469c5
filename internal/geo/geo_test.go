package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func singleSourceResolver(name, url string, parse func([]byte) (*IPInfo, error)) *Resolver {
	return &Resolver{
		client:  &http.Client{Timeout: time.Second},
		sources: []source{{name: name, url: url, parse: parse}},
		logger:  zap.NewNop(),
	}
}

func TestResolveIPInfoIO(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ip":"93.184.216.34","hostname":"host.example","city":"Luxembourg","region":"Luxembourg","country":"LU","loc":"49.6117,6.1319","timezone":"Europe/Luxembourg"}`))
	}))
	defer srv.Close()

	info, err := singleSourceResolver("ipinfo.io", srv.URL, parseIPInfoIO).Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.City != "Luxembourg" || info.Country != "LU" {
		t.Errorf("info = %+v", info)
	}
	if info.Latitude != 49.6117 || info.Longitude != 6.1319 {
		t.Errorf("coords = %v, %v", info.Latitude, info.Longitude)
	}
	if info.Location() != "Luxembourg, Luxembourg, LU" {
		t.Errorf("Location() = %q", info.Location())
	}
}

func TestResolveIPWhoIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success":true,"ip":"93.184.216.34","city":"Nags Head","region":"North Carolina","country":"United States","latitude":35.9573,"longitude":-75.6241,"timezone":{"id":"America/New_York"}}`))
	}))
	defer srv.Close()

	info, err := singleSourceResolver("ipwho.is", srv.URL, parseIPWhoIs).Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.Latitude != 35.9573 || info.Timezone != "America/New_York" {
		t.Errorf("info = %+v", info)
	}
}

func TestResolveIPWhoIsReportedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"success":false,"message":"reserved range"}`))
	}))
	defer srv.Close()

	_, err := singleSourceResolver("ipwho.is", srv.URL, parseIPWhoIs).Resolve(context.Background())
	if err == nil {
		t.Fatal("expected error for success=false")
	}
}

func TestResolveIPAPIIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ip":"93.184.216.34","location":{"city":"Esch-sur-Alzette","state":"Esch-sur-Alzette","country":"Luxembourg","latitude":49.4958,"longitude":5.9806,"timezone":"Europe/Luxembourg"}}`))
	}))
	defer srv.Close()

	info, err := singleSourceResolver("ipapi.is", srv.URL, parseIPAPIIs).Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.City != "Esch-sur-Alzette" || info.Region != "Esch-sur-Alzette" {
		t.Errorf("info = %+v", info)
	}
}

func TestResolveFallsBackAcrossSources(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ip":"1.2.3.4","city":"Berlin","loc":"52.52,13.405"}`))
	}))
	defer good.Close()

	r := &Resolver{
		client: &http.Client{Timeout: time.Second},
		sources: []source{
			{name: "bad", url: bad.URL, parse: parseIPInfoIO},
			{name: "good", url: good.URL, parse: parseIPInfoIO},
		},
		logger: zap.NewNop(),
	}

	info, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.City != "Berlin" {
		t.Errorf("info = %+v", info)
	}
}

func TestResolveAllSourcesFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	r := &Resolver{
		client: &http.Client{Timeout: time.Second},
		sources: []source{
			{name: "one", url: bad.URL, parse: parseIPInfoIO},
			{name: "two", url: bad.URL, parse: parseIPInfoIO},
		},
		logger: zap.NewNop(),
	}

	_, err := r.Resolve(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "one") || !strings.Contains(err.Error(), "two") {
		t.Errorf("err = %v, want all sources named", err)
	}
}

func TestLocationSkipsEmptyParts(t *testing.T) {
	info := &IPInfo{City: "Berlin", Country: "DE"}
	if got := info.Location(); got != "Berlin, DE" {
		t.Errorf("Location() = %q", got)
	}
}

type fakeIPResolver struct {
	info  *IPInfo
	err   error
	calls int
}

func (f *fakeIPResolver) Resolve(context.Context) (*IPInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLocatorResolvesOnce(t *testing.T) {
	fake := &fakeIPResolver{info: &IPInfo{City: "Berlin", Country: "DE", Latitude: 52.52}}
	loc := NewLocator(fake, testRedis(t), time.Hour, zap.NewNop())

	for i := 0; i < 3; i++ {
		got, err := loc.Location(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got != "Berlin, DE" {
			t.Errorf("Location = %q", got)
		}
	}
	if fake.calls != 1 {
		t.Errorf("resolver called %d times, want 1", fake.calls)
	}
}

func TestLocatorReadsRedisAcrossInstances(t *testing.T) {
	rdb := testRedis(t)
	fake := &fakeIPResolver{info: &IPInfo{City: "Berlin", Country: "DE"}}
	first := NewLocator(fake, rdb, time.Hour, zap.NewNop())
	if _, err := first.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	// A fresh locator sharing the redis backend must not hit the resolver.
	second := NewLocator(&fakeIPResolver{err: errors.New("must not resolve")}, rdb, time.Hour, zap.NewNop())
	info, err := second.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.City != "Berlin" {
		t.Errorf("info = %+v", info)
	}
}

func TestLocatorRefreshFailureKeepsCurrent(t *testing.T) {
	fake := &fakeIPResolver{info: &IPInfo{City: "Berlin"}}
	loc := NewLocator(fake, nil, time.Hour, zap.NewNop())
	if _, err := loc.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	fake.err = errors.New("lookup down")
	if _, err := loc.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}
	info, err := loc.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.City != "Berlin" {
		t.Errorf("info = %+v, want previous value retained", info)
	}
}

func TestLocatorWithoutRedis(t *testing.T) {
	fake := &fakeIPResolver{info: &IPInfo{City: "Berlin"}}
	loc := NewLocator(fake, nil, time.Hour, zap.NewNop())

	info, err := loc.Current(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if info.City != "Berlin" {
		t.Errorf("info = %+v", info)
	}
}
