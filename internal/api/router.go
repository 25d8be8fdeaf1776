package api

import (
	"net/http"
	"strings"

	costinghandler "github.com/fieldserve/parts-service/internal/costing/handler"
	inventoryhandler "github.com/fieldserve/parts-service/internal/inventory/handler"
	requesthandler "github.com/fieldserve/parts-service/internal/request/handler"
)

// NewRouter maps the HTTP surface onto the domain handlers. Identity comes
// from headers; the engine trusts whatever the gateway in front supplies.
func NewRouter(
	requests *requesthandler.RequestHandler,
	stock *inventoryhandler.InventoryHandler,
	costs *costinghandler.CostingHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/requests", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		requests.Create(w, r)
	})

	mux.HandleFunc("/requests/", func(w http.ResponseWriter, r *http.Request) {
		id, action := splitResource(r.URL.Path, "/requests/")
		if id == "" {
			http.NotFound(w, r)
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			requests.Get(w, r, id)
		case action == "history" && r.Method == http.MethodGet:
			requests.History(w, r, id)
		case action == "approve" && r.Method == http.MethodPost:
			requests.Approve(w, r, id)
		case action == "reject" && r.Method == http.MethodPost:
			requests.Reject(w, r, id)
		case action == "issue" && r.Method == http.MethodPost:
			requests.Issue(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/services/", func(w http.ResponseWriter, r *http.Request) {
		id, action := splitResource(r.URL.Path, "/services/")
		if id == "" {
			http.NotFound(w, r)
			return
		}

		switch {
		case action == "requests" && r.Method == http.MethodGet:
			requests.ListByService(w, r, id)
		case action == "install" && r.Method == http.MethodPost:
			requests.Install(w, r, id)
		case action == "returns" && r.Method == http.MethodPost:
			requests.Returns(w, r, id)
		case action == "cost" && r.Method == http.MethodPost:
			costs.Compute(w, r, id)
		case action == "cost" && r.Method == http.MethodGet:
			costs.Get(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/technicians/", func(w http.ResponseWriter, r *http.Request) {
		id, action := splitResource(r.URL.Path, "/technicians/")
		if id == "" {
			http.NotFound(w, r)
			return
		}

		switch {
		case action == "requests" && r.Method == http.MethodGet:
			requests.ListByTechnician(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/stock/availability", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stock.Availability(w, r)
	})

	mux.HandleFunc("/stock/movements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stock.Movements(w, r)
	})

	mux.HandleFunc("/stock/low", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		stock.LowStock(w, r)
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return mux
}

// splitResource breaks "/prefix/{id}/{action}" into its id and action parts.
func splitResource(path, prefix string) (id, action string) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	return id, action
}
