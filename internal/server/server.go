package server

import (
	"context"
	"encoding/json"
	"net/http"

	"expense_bot/internal/ledger"
	"expense_bot/internal/logger"
	"expense_bot/internal/telegram"

	botModels "github.com/go-telegram/bot/models"
	"github.com/gorilla/mux"
)

// Server HTTP 接入层
// 路由沿用部署平台的约定：/ 和 /api/webhook 收 Telegram webhook，
// /api/cron 由外部定时器触发回填，GET 一律当健康检查。
type Server struct {
	router  *mux.Router
	bot     *telegram.Bot
	service *ledger.Service
}

// New 创建 HTTP 接入层并注册路由
func New(bot *telegram.Bot, service *ledger.Service) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		bot:     bot,
		service: service,
	}

	s.router.Use(loggingMiddleware)

	s.router.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/webhook", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/cron", s.handleHealth).Methods(http.MethodGet)

	s.router.HandleFunc("/", s.handleWebhook).Methods(http.MethodPost)
	s.router.HandleFunc("/api/webhook", s.handleWebhook).Methods(http.MethodPost)
	s.router.HandleFunc("/api/cron", s.handleCron).Methods(http.MethodPost)

	return s
}

// Router 返回装配好的路由器
func (s *Server) Router() http.Handler {
	return s.router
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleWebhook 处理 Telegram webhook 投递
// 被忽略的消息和成功记账一样回 200：消息源不应重试它们。
// 只有真正没写成的记录才回 500，让 Telegram 稍后重投。
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update botModels.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		// 解不开的请求体当忽略处理，重投也不会变好
		logger.L().Warnf("Failed to decode webhook body: %v", err)
		w.Write([]byte("ok"))
		return
	}

	// 故意不用请求的 context：即使 Telegram 等超时断开，
	// 这条记录也要写完
	result := s.bot.HandleUpdate(context.Background(), &update)
	if result.Status == ledger.StatusFailed {
		logger.L().Errorf("Ingestion failed: %s", result.Detail)
		http.Error(w, "ingestion failed", http.StatusInternalServerError)
		return
	}

	w.Write([]byte("ok"))
}

// handleCron 触发一次回填扫描
func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	updated, err := s.service.Backfill(context.Background())
	if err != nil {
		logger.L().Errorf("Backfill failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L().Warnf("Failed to write response: %v", err)
	}
}

// loggingMiddleware 访问日志
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.L().Debugf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
