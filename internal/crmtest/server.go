// Package crmtest serves an in-memory imitation of the CRM REST API for tests.
package crmtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"ploomesterm/internal/models"
)

const DefaultKey = "test-user-key"

// Request is one call observed by the fake server.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Query    map[string]string
	Body     []byte
	Key      string
}

// Failure is a canned response returned instead of the normal handler.
type Failure struct {
	Status int
	Body   string
}

type Server struct {
	*httptest.Server

	Key string

	mu       sync.Mutex
	contacts []models.Contact
	users    []models.User
	nextID   int64
	requests []Request
	failures map[string][]Failure
}

// New starts a fake server that accepts DefaultKey and is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		Key:      DefaultKey,
		nextID:   1,
		failures: make(map[string][]Failure),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)

	return s
}

func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.Use(s.record, s.injectFailures, s.authorize)

	router.GET("/Contacts", s.listContacts)
	router.POST("/Contacts", s.createContact)
	router.GET("/Users", s.listUsers)
	router.NoRoute(s.entity)

	return router
}

// AddUsers seeds the Users collection.
func (s *Server) AddUsers(users ...models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = append(s.users, users...)
}

// AddContacts seeds contacts, assigning ids to those without one.
func (s *Server) AddContacts(contacts ...models.Contact) []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.ID == 0 {
			c.ID = s.nextID
		}
		if c.ID >= s.nextID {
			s.nextID = c.ID + 1
		}
		s.contacts = append(s.contacts, c)
		added = append(added, c)
	}
	return added
}

// Contacts returns a copy of the stored contacts.
func (s *Server) Contacts() []models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.Contact(nil), s.contacts...)
}

// Fail queues canned responses for the given method and path, e.g. ("GET", "/Users").
func (s *Server) Fail(method, path string, failures ...Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := method + " " + path
	s.failures[key] = append(s.failures[key], failures...)
}

// Requests returns every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

// RequestsFor filters the recorded requests by method and path.
func (s *Server) RequestsFor(method, path string) []Request {
	var matched []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			matched = append(matched, r)
		}
	}
	return matched
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = nil
}

func (s *Server) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)

	query := make(map[string]string)
	for name, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		RawQuery: c.Request.URL.RawQuery,
		Query:    query,
		Body:     body,
		Key:      c.GetHeader("User-Key"),
	})
	s.mu.Unlock()

	c.Set("body", body)
	c.Next()
}

func (s *Server) injectFailures(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path

	s.mu.Lock()
	queue := s.failures[key]
	var failure *Failure
	if len(queue) > 0 {
		failure = &queue[0]
		s.failures[key] = queue[1:]
	}
	s.mu.Unlock()

	if failure != nil {
		c.Data(failure.Status, "application/json", []byte(failure.Body))
		c.Abort()
		return
	}
	c.Next()
}

func (s *Server) authorize(c *gin.Context) {
	if c.GetHeader("User-Key") != s.Key {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user key"})
		return
	}
	c.Next()
}

func (s *Server) listContacts(c *gin.Context) {
	predicate, err := parseFilter(c.Query("$filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expand := strings.Split(c.Query("$expand"), ",")
	skip, _ := strconv.Atoi(c.DefaultQuery("$skip", "0"))
	top, _ := strconv.Atoi(c.DefaultQuery("$top", "0"))

	s.mu.Lock()
	users := s.userNames()
	var matched []models.Contact
	for _, contact := range s.contacts {
		if predicate(contact, users) {
			matched = append(matched, s.project(contact, expand, users))
		}
	}
	s.mu.Unlock()

	matched = window(matched, skip, top)
	c.JSON(http.StatusOK, gin.H{"value": matched})
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	users := append([]models.User{}, s.users...)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"value": users})
}

func (s *Server) createContact(c *gin.Context) {
	var payload models.NewContact
	if err := json.Unmarshal(rawBody(c), &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created := s.AddContacts(models.Contact{
		Name:    payload.Name,
		Email:   payload.Email,
		Phones:  payload.Phones,
		OwnerID: payload.OwnerID,
	})
	c.JSON(http.StatusOK, gin.H{"value": created})
}

func rawBody(c *gin.Context) []byte {
	value, _ := c.Get("body")
	body, _ := value.([]byte)
	return body
}

var entityPattern = regexp.MustCompile(`^/Contacts\((\d+)\)$`)

func (s *Server) entity(c *gin.Context) {
	match := entityPattern.FindStringSubmatch(c.Request.URL.Path)
	if match == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	id, _ := strconv.ParseInt(match[1], 10, 64)

	switch c.Request.Method {
	case http.MethodPatch:
		s.patchContact(c, id)
	case http.MethodDelete:
		s.deleteContact(c, id)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	}
}

func (s *Server) patchContact(c *gin.Context, id int64) {
	var patch models.ContactPatch
	if err := json.Unmarshal(rawBody(c), &patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.contacts {
		if s.contacts[i].ID == id {
			s.contacts[i].Apply(patch)
			c.Status(http.StatusOK)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
}

func (s *Server) deleteContact(c *gin.Context, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.contacts {
		if s.contacts[i].ID == id {
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			c.Status(http.StatusOK)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
}

func (s *Server) userNames() map[int64]string {
	names := make(map[int64]string, len(s.users))
	for _, u := range s.users {
		names[u.ID] = u.Name
	}
	return names
}

// project shapes a stored contact the way $expand asks for it.
func (s *Server) project(contact models.Contact, expand []string, users map[int64]string) models.Contact {
	out := contact
	out.Phones = nil
	out.Owner = nil

	for _, e := range expand {
		switch strings.TrimSpace(e) {
		case "Phones":
			out.Phones = append([]models.Phone(nil), contact.Phones...)
		case "Owner":
			if contact.OwnerID != nil {
				out.Owner = &models.User{ID: *contact.OwnerID, Name: users[*contact.OwnerID]}
			}
		}
	}
	return out
}

func window(contacts []models.Contact, skip, top int) []models.Contact {
	if skip >= len(contacts) {
		return []models.Contact{}
	}
	contacts = contacts[skip:]
	if top > 0 && top < len(contacts) {
		contacts = contacts[:top]
	}
	return contacts
}
