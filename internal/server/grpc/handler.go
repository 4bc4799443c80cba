package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const outcomeSuccess = "success"

// CodeFor maps an error kind to a gRPC status code.
func CodeFor(kind common.Kind) codes.Code {
	switch kind {
	case common.KindValidation:
		return codes.InvalidArgument
	case common.KindAuthentication:
		return codes.Unauthenticated
	case common.KindAuthorization:
		return codes.PermissionDenied
	case common.KindNotFound:
		return codes.NotFound
	case common.KindConflict:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	kind := common.KindOf(err)
	code := CodeFor(kind)
	if code == codes.Internal {
		logging.LogError(ctx, s.logger, "rpc failed", err, "method", method)
	} else {
		s.logger.Warn(ctx, "rpc rejected", "method", method, "kind", kind.String(), "message", common.MessageOf(err))
	}
	return status.Error(code, common.MessageOf(err))
}

// stringFields copies the named string fields out of req. A non-string
// value is a malformed request.
func stringFields(req *structpb.Struct, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		v, ok := req.GetFields()[name]
		if !ok {
			continue
		}
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			out[name] = k.StringValue
		case *structpb.Value_NullValue:
		default:
			return nil, common.Validation("Invalid request body")
		}
	}
	return out, nil
}

func publicUserValue(u *models.PublicUser) map[string]any {
	m := map[string]any{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
	}
	if u.Role != "" {
		m["role"] = u.Role
	}
	if !u.CreatedAt.IsZero() {
		m["createdAt"] = u.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return m
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Registration request")

	var in *services.RegisterInput
	if len(req.GetFields()) > 0 {
		f, err := stringFields(req, "name", "email", "password", "confirmPassword")
		if err != nil {
			s.recordAuthEvent("register", common.KindOf(err).String())
			return nil, s.toStatus(ctx, RegisterMethod, err)
		}
		in = &services.RegisterInput{
			Name:            f["name"],
			Email:           f["email"],
			Password:        f["password"],
			ConfirmPassword: f["confirmPassword"],
		}
	}

	user, err := s.register.Execute(ctx, in)
	if err != nil {
		s.recordAuthEvent("register", common.KindOf(err).String())
		return nil, s.toStatus(ctx, RegisterMethod, err)
	}

	out, err := structpb.NewStruct(publicUserValue(user))
	if err != nil {
		return nil, s.toStatus(ctx, RegisterMethod, common.Internal(err))
	}

	s.recordAuthEvent("register", outcomeSuccess)
	return out, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	var in *services.LoginInput
	if len(req.GetFields()) > 0 {
		f, err := stringFields(req, "email", "password")
		if err != nil {
			s.recordAuthEvent("login", common.KindOf(err).String())
			return nil, s.toStatus(ctx, LoginMethod, err)
		}
		in = &services.LoginInput{Email: f["email"], Password: f["password"]}
	}

	res, err := s.login.Execute(ctx, in)
	if err != nil {
		s.recordAuthEvent("login", common.KindOf(err).String())
		return nil, s.toStatus(ctx, LoginMethod, err)
	}

	out, err := structpb.NewStruct(map[string]any{
		"token": res.Token,
		"user":  publicUserValue(res.User),
	})
	if err != nil {
		return nil, s.toStatus(ctx, LoginMethod, common.Internal(err))
	}

	s.recordAuthEvent("login", outcomeSuccess)
	return out, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	claims, ok := claimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Authentication required")
	}

	m := map[string]any{"id": claims.UserID(), "email": claims.Email}
	if claims.Role != "" {
		m["role"] = claims.Role
	}

	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, s.toStatus(ctx, MeMethod, common.Internal(err))
	}
	return out, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	database := "up"
	if err := s.store.Ping(ctx); err != nil {
		logging.LogError(ctx, s.logger, "store ping failed", err)
		database = "down"
	}

	st := "ok"
	if database != "up" {
		st = "error"
	}

	return structpb.NewStruct(map[string]any{
		"status":   st,
		"services": map[string]any{"database": database},
	})
}
