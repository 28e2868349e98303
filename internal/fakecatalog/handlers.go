package fakecatalog

import (
	"encoding/json"
	"net/http"

	"github.com/catalogqa/catalog-contract-tests/servicedef"

	"github.com/julienschmidt/httprouter"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeEntity writes a single entity, applying the DropFields fault.
func (s *Service) writeEntity(w http.ResponseWriter, entity interface{}, faults Faults) {
	if len(faults.DropFields) == 0 {
		writeJSON(w, http.StatusOK, entity)
		return
	}
	data, _ := json.Marshal(entity)
	var m map[string]interface{}
	_ = json.Unmarshal(data, &m)
	for _, f := range faults.DropFields {
		delete(m, f)
	}
	writeJSON(w, http.StatusOK, m)
}

// writeNotFound writes the null body the catalog uses for a missing entity.
func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, nil)
}

func (s *Service) writeList(w http.ResponseWriter, list interface{}, faults Faults) {
	if faults.MalformedLists {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"_id": `))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Service) currentFaults() Faults {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults
}

func (s *Service) status(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	faults := s.currentFaults()
	var creds servicedef.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login body")
		return
	}
	if faults.RejectLogin || creds != s.credentials {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if faults.EmptyToken {
		writeJSON(w, http.StatusOK, servicedef.LoginResponse{})
		return
	}
	token, err := s.issueToken(creds.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, servicedef.LoginResponse{Token: token})
}

func (s *Service) listCategories(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeList(w, s.Categories(), s.currentFaults())
}

func (s *Service) getCategory(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	c, ok := s.categories[ps.ByName("id")]
	faults := s.faults
	s.mu.Unlock()
	if !ok {
		writeNotFound(w)
		return
	}
	s.writeEntity(w, c, faults)
}

func (s *Service) createCategory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var params servicedef.CategoryParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.Title == "" {
		writeError(w, http.StatusBadRequest, "a category needs a title")
		return
	}
	id := s.AddCategory(params.Title)
	faults := s.currentFaults()
	if faults.OmitCreatedID {
		writeJSON(w, http.StatusOK, params)
		return
	}
	s.writeEntity(w, servicedef.Category{ID: id, Title: params.Title}, faults)
}

func (s *Service) updateCategory(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var params servicedef.CategoryParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid category body")
		return
	}
	s.mu.Lock()
	c, ok := s.categories[ps.ByName("id")]
	if ok && params.Title != "" {
		c.Title = params.Title
		s.categories[c.ID] = c
	}
	faults := s.faults
	s.mu.Unlock()
	if !ok {
		writeNotFound(w)
		return
	}
	s.writeEntity(w, c, faults)
}

func (s *Service) deleteCategory(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	s.mu.Lock()
	c, ok := s.categories[id]
	if ok && !s.faults.StaleAfterDelete {
		delete(s.categories, id)
		s.categoryOrder = without(s.categoryOrder, id)
	}
	s.mu.Unlock()
	if !ok {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Service) listBooks(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.writeList(w, s.Books(), s.currentFaults())
}

func (s *Service) getBook(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	b, ok := s.books[ps.ByName("id")]
	var view servicedef.Book
	if ok {
		view = s.bookView(b)
	}
	faults := s.faults
	s.mu.Unlock()
	if !ok {
		writeNotFound(w)
		return
	}
	s.writeEntity(w, view, faults)
}

func (s *Service) createBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var params servicedef.CreateBookParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil || params.Title == "" {
		writeError(w, http.StatusBadRequest, "a book needs a title")
		return
	}
	id := s.AddBook(SeedBook{
		Title:       params.Title,
		Author:      params.Author,
		Description: params.Description,
		Price:       params.Price,
		Pages:       params.Pages,
	}, params.Category)

	s.mu.Lock()
	view := s.bookView(s.books[id])
	faults := s.faults
	s.mu.Unlock()
	if faults.OmitCreatedID {
		view.ID = ""
	}
	s.writeEntity(w, view, faults)
}

func (s *Service) updateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var changes map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid book body")
		return
	}
	s.mu.Lock()
	b, ok := s.books[ps.ByName("id")]
	faults := s.faults
	if ok {
		if faults.ClobberOnUpdate {
			b = storedBook{id: b.id}
		}
		applyBookChanges(&b, changes)
		s.books[b.id] = b
	}
	var view servicedef.Book
	if ok {
		view = s.bookView(b)
	}
	s.mu.Unlock()
	if !ok {
		writeNotFound(w)
		return
	}
	s.writeEntity(w, view, faults)
}

func applyBookChanges(b *storedBook, changes map[string]json.RawMessage) {
	for key, raw := range changes {
		switch key {
		case "title":
			_ = json.Unmarshal(raw, &b.title)
		case "author":
			_ = json.Unmarshal(raw, &b.author)
		case "description":
			_ = json.Unmarshal(raw, &b.description)
		case "price":
			_ = json.Unmarshal(raw, &b.price)
		case "pages":
			_ = json.Unmarshal(raw, &b.pages)
		case "category":
			var ref servicedef.CategoryRef
			if json.Unmarshal(raw, &ref) == nil {
				b.categoryID = ref.ID
			}
		}
	}
}

func (s *Service) deleteBook(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	s.mu.Lock()
	b, ok := s.books[id]
	var view servicedef.Book
	if ok {
		view = s.bookView(b)
		if !s.faults.StaleAfterDelete {
			delete(s.books, id)
			s.bookOrder = without(s.bookOrder, id)
		}
	}
	s.mu.Unlock()
	if !ok {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func without(ids []string, id string) []string {
	ret := ids[:0]
	for _, x := range ids {
		if x != id {
			ret = append(ret, x)
		}
	}
	return ret
}
