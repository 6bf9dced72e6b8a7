package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/NgigiN/savepesa/internal/auth"
	"github.com/NgigiN/savepesa/internal/mpesa"
	"github.com/NgigiN/savepesa/internal/storage"
	"github.com/NgigiN/savepesa/internal/syncer"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type registerRequest struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone and password required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	account := &storage.Account{Phone: req.Phone, Name: req.Name, Password: string(hash)}
	if err := s.db.CreateAccount(c.Request.Context(), account); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number already registered"})
			return
		}
		s.logger.Error("register failed", "request_id", requestIDFrom(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "userId": account.ID})
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone and password required"})
		return
	}

	account, err := s.db.FindAccountByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User not found"})
			return
		}
		s.logger.Error("login failed", "request_id", requestIDFrom(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid password"})
		return
	}

	token, err := s.issuer.GenerateToken(auth.Identity{AccountID: account.ID, Phone: account.Phone, Name: account.Name})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": account.ID, "phone": account.Phone, "name": account.Name},
	})
}

func (s *Server) handleListTransactions(c *gin.Context) {
	id := identityFrom(c)
	records, err := s.db.ListTransactions(c.Request.Context(), id.AccountID)
	if err != nil {
		s.logger.Error("list transactions failed", "request_id", requestIDFrom(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []storage.Transaction{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleListGoals(c *gin.Context) {
	id := identityFrom(c)
	records, err := s.db.ListGoals(c.Request.Context(), id.AccountID)
	if err != nil {
		s.logger.Error("list goals failed", "request_id", requestIDFrom(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []storage.Goal{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleSyncTransactions(c *gin.Context) {
	var req struct {
		Transactions json.RawMessage `json:"transactions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data format"})
		return
	}
	id := identityFrom(c)
	err := s.rec.SyncTransactions(c.Request.Context(), id.AccountID, req.Transactions)
	s.respondSync(c, "transactions", err)
}

func (s *Server) handleSyncGoals(c *gin.Context) {
	var req struct {
		Goals json.RawMessage `json:"goals"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data format"})
		return
	}
	id := identityFrom(c)
	err := s.rec.SyncGoals(c.Request.Context(), id.AccountID, req.Goals)
	s.respondSync(c, "goals", err)
}

// respondSync maps reconciler outcomes to the wire contract: malformed
// payloads are the client's fault, conflicts name the offending record, and
// anything else is a server fault. All failures mean the whole batch was
// rolled back.
func (s *Server) respondSync(c *gin.Context, kind string, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Sync successful"})
	case errors.Is(err, syncer.ErrMalformedBatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data format"})
	case errors.Is(err, storage.ErrConflict):
		s.logger.Warn("sync conflict", "request_id", requestIDFrom(c), "kind", kind, "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("sync failed", "request_id", requestIDFrom(c), "kind", kind, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type parseRequest struct {
	Message string `json:"message"`
}

// handleParseConfirmation turns a pasted M-Pesa confirmation SMS into a
// transaction draft the client can edit and later sync.
func (s *Server) handleParseConfirmation(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}

	conf, err := mpesa.ParseConfirmation(req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       uuid.NewString(),
		"title":    conf.Counterparty,
		"amount":   conf.Amount,
		"date":     conf.DateTime,
		"category": "M-Pesa",
		"mpesa_id": conf.Reference,
	})
}
