package middleware

import (
	"net/http"

	"github.com/hitoshi/regiman/internal/metrics"
	"github.com/hitoshi/regiman/internal/rbac"
)

// NewPermissionMiddleware は認証済みプロファイルのロールをゲートで検査するミドルウェアを返す。
// 画面遷移側と同一のゲートを共有することで、UI側とAPI側の権限判定が乖離しない。
// labelはメトリクスのpermissionラベルに使用する。
// 判定結果は許可・拒否を問わず記録され、拒否は403で応答するだけでログには残さない。
func NewPermissionMiddleware(gate rbac.Gate, label string, recorder metrics.Recorder) func(next http.Handler) http.Handler {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile, err := ProfileFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			allowed := gate.Admits(profile.Role)
			recorder.RecordAuthzDecision(label, allowed)
			if !allowed {
				WriteErrorResponse(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
