package rpc

import (
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/msmt-labs/mssmt/lib"
	"github.com/msmt-labs/mssmt/metrics"
	"github.com/msmt-labs/mssmt/mssmt"
	"github.com/msmt-labs/mssmt/storage"
)

// Server is the small HTTP facade exposing the tree's operations as JSON endpoints.
// It holds the single in-memory *mssmt.Tree behind a mutex: every mutating request
// swaps in the new tree Insert/Delete returned under mu, and every read snapshots
// the current pointer under mu before using it - since *mssmt.Tree is itself an
// immutable value once published, no lock is needed past that snapshot
type Server struct {
	conf    lib.RPCConfig
	log     lib.LoggerI
	store   *storage.Store
	metrics *metrics.Metrics
	mu      sync.RWMutex
	tree    *mssmt.Tree
}

// NewServer() constructs a Server over an already-loaded tree
func NewServer(conf lib.RPCConfig, store *storage.Store, m *metrics.Metrics, tree *mssmt.Tree, log lib.LoggerI) *Server {
	return &Server{conf: conf, log: log, store: store, metrics: m, tree: tree}
}

// currentTree() returns the currently published tree
func (s *Server) currentTree() *mssmt.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}

// swapTree() publishes a new tree in place of the current one
func (s *Server) swapTree(t *mssmt.Tree) {
	s.mu.Lock()
	s.tree = t
	s.mu.Unlock()
}

// Start() blocks, serving the RPC API on conf.RPCPort
func (s *Server) Start() lib.ErrorI {
	router := httprouter.New()
	router.POST("/v1/insert", s.handleInsert)
	router.GET("/v1/get/:key", s.handleGet)
	router.POST("/v1/delete", s.handleDelete)
	router.GET("/v1/proof/:key", s.handleProof)
	router.POST("/v1/verify", s.handleVerify)
	router.GET("/v1/root", s.handleRoot)

	handler := cors.AllowAll().Handler(router)
	s.log.Infof("rpc server listening on :%s", s.conf.RPCPort)
	timeout := time.Duration(s.conf.TimeoutS) * time.Second
	srv := &http.Server{Addr: ":" + s.conf.RPCPort, Handler: handler, ReadTimeout: timeout, WriteTimeout: timeout}
	if err := srv.ListenAndServe(); err != nil {
		return lib.NewError(lib.NoCode, lib.RPCModule, err.Error())
	}
	return nil
}

type insertRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Sum   uint64 `json:"sum"`
}

type deleteRequest struct {
	Key string `json:"key"`
}

type verifyRequest struct {
	Root  string          `json:"root"`
	Key   string          `json:"key"`
	Value string          `json:"value"`
	Sum   uint64          `json:"sum"`
	Proof []mssmt.Sibling `json:"proof"`
}

type entryResponse struct {
	Value string `json:"value"`
	Sum   uint64 `json:"sum"`
}

type rootResponse struct {
	Root string `json:"root"`
	Sum  uint64 `json:"sum"`
}

func parseKey(s string) (mssmt.Key, lib.ErrorI) {
	var key mssmt.Key
	bz, err := hex.DecodeString(s)
	if err != nil || len(bz) != mssmt.KeySize {
		return key, lib.ErrInvalidKeyLength(len(bz))
	}
	copy(key[:], bz)
	return key, nil
}

func (s *Server) writeError(w http.ResponseWriter, err lib.ErrorI, status int) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req insertRequest
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	if err := lib.UnmarshalJSON(body, &req); err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	key, err := parseKey(req.Key)
	if err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	newTree, err := mssmt.Insert(s.currentTree(), key, []byte(req.Value), req.Sum)
	if err != nil {
		s.writeError(w, err, http.StatusInternalServerError)
		return
	}
	s.swapTree(newTree)
	if s.store != nil {
		_ = s.store.Put(key, []byte(req.Value), req.Sum)
	}
	if s.metrics != nil {
		s.metrics.Inserts.Inc()
		s.metrics.TotalSum.Set(float64(mssmt.TotalSum(newTree)))
		s.metrics.TreeSize.Set(float64(mssmt.LeafCount(newTree)))
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	key, err := parseKey(p.ByName("key"))
	if err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	value, sum, err := mssmt.Get(s.currentTree(), key)
	if s.metrics != nil {
		s.metrics.Gets.Inc()
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.NotFound.Inc()
		}
		s.writeError(w, err, http.StatusNotFound)
		return
	}
	bz, jErr := lib.MarshalJSON(entryResponse{Value: string(value), Sum: sum})
	if jErr != nil {
		s.writeError(w, jErr, http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(bz)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req deleteRequest
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	if err := lib.UnmarshalJSON(body, &req); err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	key, err := parseKey(req.Key)
	if err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	newTree, err := mssmt.Delete(s.currentTree(), key)
	if err != nil {
		if s.metrics != nil {
			s.metrics.NotFound.Inc()
		}
		s.writeError(w, err, http.StatusNotFound)
		return
	}
	s.swapTree(newTree)
	if s.store != nil {
		_ = s.store.Delete(key)
	}
	if s.metrics != nil {
		s.metrics.Deletes.Inc()
		s.metrics.TotalSum.Set(float64(mssmt.TotalSum(newTree)))
		s.metrics.TreeSize.Set(float64(mssmt.LeafCount(newTree)))
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleProof(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	key, err := parseKey(p.ByName("key"))
	if err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	proof := mssmt.MerkleProof(s.currentTree(), key)
	if s.metrics != nil {
		s.metrics.ProofsIssued.Inc()
		s.metrics.ProofDepth.Observe(float64(len(proof)))
	}
	bz, jErr := lib.MarshalJSON(proof)
	if jErr != nil {
		s.writeError(w, jErr, http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(bz)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req verifyRequest
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	if err := lib.UnmarshalJSON(body, &req); err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	key, err := parseKey(req.Key)
	if err != nil {
		s.writeError(w, err, http.StatusBadRequest)
		return
	}
	root, decErr := hex.DecodeString(req.Root)
	if decErr != nil {
		s.writeError(w, lib.ErrInvalidArgument(), http.StatusBadRequest)
		return
	}
	ok := mssmt.VerifyProof(root, key, []byte(req.Value), req.Sum, req.Proof)
	bz, jErr := lib.MarshalJSON(ok)
	if jErr != nil {
		s.writeError(w, jErr, http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(bz)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tree := s.currentTree()
	resp := rootResponse{
		Root: hex.EncodeToString(mssmt.RootHash(tree)),
		Sum:  mssmt.TotalSum(tree),
	}
	bz, jErr := lib.MarshalJSON(resp)
	if jErr != nil {
		s.writeError(w, jErr, http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(bz)
}

func readBody(r *http.Request) ([]byte, lib.ErrorI) {
	bz, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, lib.ErrReadBody(err)
	}
	return bz, nil
}
