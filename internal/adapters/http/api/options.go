package api

import "github.com/okian/arcade/pkg/logger"

const defaultMaxBodyBytes = 1 << 20

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
