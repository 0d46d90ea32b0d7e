package nbp

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/etnz/pit/date"
	"golang.org/x/text/encoding/charmap"
)

// archive is a trimmed yearly archive as published, before ISO-8859-2 encoding.
const archive = `data;1THB;1USD;100JPY;1EUR;nr tabeli;pełny numer tabeli
;bat (Tajlandia);dolar amerykański;jen (Japonia);euro;;
20240102;0,1150;3,9432;2,7800;4,3434;1;001/A/NBP/2024
20240103;0,1152;3,9909;2,7900;4,3646;2;002/A/NBP/2024

kod ISO;THB;USD;JPY;EUR;;
`

func encode(t *testing.T, s string) []byte {
	b, err := charmap.ISO8859_2.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestFetchYear(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write(encode(t, archive))
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), ArchiveURL: srv.URL}
	got, err := c.FetchYear(2024)
	if err != nil {
		t.Fatal(err)
	}
	if path != "/archiwum_tab_a_2024.csv" {
		t.Errorf("requested %q want /archiwum_tab_a_2024.csv", path)
	}
	if len(got) != 2 {
		t.Fatalf("FetchYear() = %v want 2 rows", got)
	}
	if got[0].On != date.New(2024, 1, 2) || got[0].Rates["USD"] != 3.9432 || got[0].Rates["EUR"] != 4.3434 {
		t.Errorf("FetchYear()[0] = %+v", got[0])
	}
	if _, ok := got[1].Rates["JPY"]; ok {
		t.Errorf("FetchYear()[1] = %+v should only keep %v", got[1], Currencies)
	}
}

func TestFetchYearError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), ArchiveURL: srv.URL}
	_, err := c.FetchYear(2024)
	var status *StatusError
	if !errors.As(err, &status) || status.StatusCode != http.StatusNotFound {
		t.Errorf("FetchYear() error = %v want a 404 StatusError", err)
	}
}

func TestFetchRange(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Path)
		if strings.HasPrefix(r.URL.Path, "/tables/A/2024-01-01/") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `[{"table":"A","no":"065/A/NBP/2024","effectiveDate":"2024-04-03","rates":[
			{"currency":"dolar amerykański","code":"USD","mid":3.9773},
			{"currency":"euro","code":"EUR","mid":4.2917},
			{"currency":"jen (Japonia)","code":"JPY","mid":0.026}]}]`)
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), APIURL: srv.URL}
	got, err := c.FetchRange(date.New(2024, 1, 1), date.New(2024, 5, 1))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/tables/A/2024-01-01/2024-04-02/", "/tables/A/2024-04-03/2024-05-01/"}
	if strings.Join(requests, " ") != strings.Join(want, " ") {
		t.Errorf("requests = %v want %v", requests, want)
	}
	if len(got) != 1 || got[0].On != date.New(2024, 4, 3) || got[0].Rates["USD"] != 3.9773 || len(got[0].Rates) != 2 {
		t.Errorf("FetchRange() = %+v", got)
	}
}

func TestFetchRangeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), APIURL: srv.URL}
	if _, err := c.FetchRange(date.New(2024, 1, 1), date.New(2024, 1, 5)); err == nil {
		t.Errorf("FetchRange() expected an error on status 500")
	}
}
