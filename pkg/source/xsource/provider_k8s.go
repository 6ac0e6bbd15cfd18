package xsource

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/omeyang/xprops/pkg/props/xtable"
)

// ConfigMapProvider 把 Kubernetes ConfigMap 作为属性源。
//
// spec 形如 k8s://default/app-config，Target 为 "namespace/name"。
// data 中键名带可识别扩展名（.properties/.yaml/.yml/.json）的条目
// 被当作对应格式的文档解析后并入；其余条目直接作为键值对。
// 文档条目按键名升序并入，重键时靠后的文档胜出。BinaryData 忽略。
type ConfigMapProvider struct {
	clientset kubernetes.Interface
}

// NewConfigMapProvider 创建 ConfigMap Provider。
func NewConfigMapProvider(clientset kubernetes.Interface) *ConfigMapProvider {
	return &ConfigMapProvider{clientset: clientset}
}

// Schemes 实现 Provider。
func (p *ConfigMapProvider) Schemes() []string {
	return []string{SchemeK8s}
}

// Load 读取 ConfigMap 并展开其 data。
func (p *ConfigMapProvider) Load(ctx context.Context, spec *Spec) (*xtable.Table, error) {
	cm, err := p.configMap(ctx, spec)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(cm.Data))
	for k := range cm.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tbl := xtable.New()
	for _, k := range keys {
		value := cm.Data[k]
		if isDocumentKey(k) {
			doc, err := Decode([]byte(value), DetectFormat(k))
			if err != nil {
				return nil, fmt.Errorf("%w: configmap %q entry %q: %w", ErrSourceLoad, spec.Target, k, err)
			}
			tbl.PutAll(doc)
			continue
		}
		tbl.Set(k, value)
	}
	return tbl, nil
}

// Stamp 返回 ConfigMap 的 resourceVersion 印章。
func (p *ConfigMapProvider) Stamp(ctx context.Context, spec *Spec) (string, error) {
	cm, err := p.configMap(ctx, spec)
	if err != nil {
		return "", err
	}
	return "rv:" + cm.ResourceVersion, nil
}

func (p *ConfigMapProvider) configMap(ctx context.Context, spec *Spec) (*corev1.ConfigMap, error) {
	if p.clientset == nil {
		return nil, fmt.Errorf("%w: configmap provider", ErrNilClient)
	}
	namespace, name, ok := strings.Cut(spec.Target, "/")
	if !ok || namespace == "" || name == "" {
		return nil, fmt.Errorf("%w: %q: want k8s://namespace/name", ErrBadSpec, spec.Raw)
	}
	cm, err := p.clientset.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("%w: configmap %q", ErrSourceNotFound, spec.Target)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: configmap %q: %w", ErrSourceLoad, spec.Target, err)
	}
	return cm, nil
}

// isDocumentKey 判断 data 条目是否应按文档解析。
func isDocumentKey(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".properties", ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
