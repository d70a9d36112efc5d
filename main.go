package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"
	_ "k8s.io/client-go/plugin/pkg/client/auth"
	restclient "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/chaitanyaenr/container-plugin/config"
	"github.com/chaitanyaenr/container-plugin/containerkill"
	"github.com/chaitanyaenr/container-plugin/executor"
	"github.com/chaitanyaenr/container-plugin/notifier"
	"github.com/chaitanyaenr/container-plugin/report"
	"github.com/chaitanyaenr/container-plugin/resolver"
	"github.com/chaitanyaenr/container-plugin/runtime"
)

var (
	configPath       string
	namespace        string
	podName          string
	containers       []string
	labelString      string
	action           string
	signalName       string
	gracePeriod      time.Duration
	mode             string
	maxInFlight      int
	perTargetTimeout time.Duration
	overallTimeout   time.Duration
	dryRun           bool
	slackWebhook     string
	master           string
	kubeconfig       string
	metricsAddress   string
	debug            bool
	version          string
)

func init() {
	kingpin.Flag("config", "Path to an invocation config file (YAML). Overrides the invocation flags below.").StringVar(&configPath)
	kingpin.Flag("namespace", "The namespace of the target pod.").StringVar(&namespace)
	kingpin.Flag("pod", "The name of the target pod.").StringVar(&podName)
	kingpin.Flag("container", "A container name to target. Repeatable. Defaults to all containers of the pod.").StringsVar(&containers)
	kingpin.Flag("labels", "A label selector matched against the pod's labels. Mutually exclusive with --container.").StringVar(&labelString)
	kingpin.Flag("action", "The disruption to apply to each target.").Default("kill").EnumVar(&action, "kill", "stop")
	kingpin.Flag("signal", "The signal delivered by the kill action.").Default("SIGKILL").StringVar(&signalName)
	kingpin.Flag("grace-period", "How long the stop action waits before killing the container.").Default("10s").DurationVar(&gracePeriod)
	kingpin.Flag("mode", "Whether to act on targets one at a time or concurrently.").Default("parallel").EnumVar(&mode, "serial", "parallel")
	kingpin.Flag("max-in-flight", "Upper bound on concurrent actions in parallel mode. 0 matches the target count, capped at 16.").Default("0").IntVar(&maxInFlight)
	kingpin.Flag("timeout", "Timeout for each individual action.").Default("30s").DurationVar(&perTargetTimeout)
	kingpin.Flag("overall-timeout", "Wall-clock bound for the whole invocation.").Default("2m").DurationVar(&overallTimeout)
	kingpin.Flag("dry-run", "If true, don't actually do anything.").Default("true").BoolVar(&dryRun)
	kingpin.Flag("slack-webhook", "The address of a slack webhook to notify when the invocation finishes.").StringVar(&slackWebhook)
	kingpin.Flag("master", "The address of the Kubernetes cluster to target.").StringVar(&master)
	kingpin.Flag("kubeconfig", "Path to a kubeconfig file.").StringVar(&kubeconfig)
	kingpin.Flag("metrics-address", "Listening address for metrics handler. Empty disables it.").StringVar(&metricsAddress)
	kingpin.Flag("debug", "Enable debug logging.").BoolVar(&debug)
}

func main() {
	kingpin.Version(version)
	kingpin.Parse()

	if debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	log.WithFields(log.Fields{
		"namespace":        cfg.Namespace,
		"pod":              cfg.Pod,
		"containers":       cfg.Containers,
		"labels":           cfg.LabelSelector,
		"action":           cfg.Action,
		"signal":           cfg.Signal,
		"mode":             cfg.Mode,
		"maxInFlight":      cfg.MaxInFlight,
		"perTargetTimeout": cfg.PerTargetTimeout,
		"overallTimeout":   cfg.OverallTimeout,
		"dryRun":           cfg.DryRun,
		"master":           master,
		"kubeconfig":       kubeconfig,
	}).Debugf("reading config")

	client, restConfig, err := newClient()
	if err != nil {
		log.Fatal(err)
	}

	selector, err := selectorFromConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}

	rt := runtime.NewKubernetes(client, client.CoreV1().RESTClient(), restConfig, log.StandardLogger())
	res := resolver.New(rt, log.StandardLogger())
	exec := executor.New(rt, log.StandardLogger(), executor.Mode(cfg.Mode), cfg.MaxInFlight, cfg.DryRun)

	notifiers := notifier.New()
	if cfg.SlackWebhook != "" {
		notifiers.Add(notifier.NewSlackNotifier(cfg.SlackWebhook))
	}

	runner := containerkill.New(
		res,
		exec,
		containerkill.WithPod(resolver.PodRef{Namespace: cfg.Namespace, Name: cfg.Pod}),
		containerkill.WithSelector(selector),
		containerkill.WithActionSpec(executor.ActionSpec{
			Kind:             executor.ActionKind(cfg.Action),
			Signal:           cfg.Signal,
			GracePeriod:      cfg.GracePeriod,
			PerTargetTimeout: cfg.PerTargetTimeout,
		}),
		containerkill.WithOverallTimeout(cfg.OverallTimeout),
		containerkill.WithLogger(log.StandardLogger()),
		containerkill.WithNotifier(notifiers),
	)

	if metricsAddress != "" {
		go serveMetrics(metricsAddress)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := runner.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rep); err != nil {
		log.Fatal(err)
	}

	switch rep.OverallStatus {
	case report.AllSucceeded, report.NoTargets:
		os.Exit(0)
	default:
		os.Exit(1)
	}
}

// loadConfig layers the config file, if given, over the invocation flags.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}

	cfg := config.Default()
	cfg.Namespace = namespace
	cfg.Pod = podName
	cfg.Containers = containers
	cfg.LabelSelector = labelString
	cfg.Action = action
	cfg.Signal = signalName
	cfg.GracePeriod = gracePeriod
	cfg.Mode = mode
	cfg.MaxInFlight = maxInFlight
	cfg.PerTargetTimeout = perTargetTimeout
	cfg.OverallTimeout = overallTimeout
	cfg.DryRun = dryRun
	cfg.SlackWebhook = slackWebhook

	return cfg, nil
}

func selectorFromConfig(cfg config.Config) (resolver.ContainerSelector, error) {
	switch {
	case cfg.LabelSelector != "":
		sel, err := labels.Parse(cfg.LabelSelector)
		if err != nil {
			return resolver.ContainerSelector{}, err
		}
		return resolver.ByLabel(sel), nil
	case len(cfg.Containers) > 0:
		return resolver.ByName(cfg.Containers...), nil
	default:
		return resolver.AllContainers(), nil
	}
}

func newClient() (*kubernetes.Clientset, *restclient.Config, error) {
	if kubeconfig == "" {
		if _, err := os.Stat(clientcmd.RecommendedHomeFile); err == nil {
			kubeconfig = clientcmd.RecommendedHomeFile
		}
	}

	restConfig, err := clientcmd.BuildConfigFromFlags(master, kubeconfig)
	if err != nil {
		return nil, nil, err
	}

	client, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, nil, err
	}

	serverVersion, err := client.Discovery().ServerVersion()
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"url":           restConfig.Host,
		"serverVersion": serverVersion,
	}).Info("connecting to cluster")

	return client, restConfig, nil
}

func serveMetrics(address string) {
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(address, nil); err != nil {
		log.WithField("err", err).Error("metrics handler stopped")
	}
}
