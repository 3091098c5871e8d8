package devsdk

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type publishKeyRequest struct {
	KeyURI    string `json:"keyUri"`
	PublicKey string `json:"publicKey"`
}

// KeyHandler lets a local wallet publish its key agreement key, standing in
// for a DID document lookup on chain.
type KeyHandler struct {
	keyring *Keyring
}

func NewKeyHandler(keyring *Keyring) *KeyHandler {
	return &KeyHandler{keyring: keyring}
}

func (h *KeyHandler) Register(r chi.Router) {
	r.Post("/dev/keys", h.HandlePublish)
}

// HandlePublish implements POST /dev/keys.
//
// Input: { "keyUri": "did:kilt:...#encryption", "publicKey": "0x<32 bytes>" }
func (h *KeyHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(req.KeyURI, "did:") || !strings.Contains(req.KeyURI, "#") {
		http.Error(w, "keyUri must be a DID key URI", http.StatusBadRequest)
		return
	}
	raw, err := decodeHex(req.PublicKey)
	if err != nil || len(raw) != 32 {
		http.Error(w, "publicKey must be 32 hex encoded bytes", http.StatusBadRequest)
		return
	}
	var pub [32]byte
	copy(pub[:], raw)
	h.keyring.Register(req.KeyURI, pub)
	w.WriteHeader(http.StatusNoContent)
}
