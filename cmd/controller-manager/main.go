package main

import (
	"flag"
	"os"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	agentrunv1alpha1 "github.com/agentrun/agentrun/api/v1alpha1"
	"github.com/agentrun/agentrun/internal/config"
	"github.com/agentrun/agentrun/internal/controller"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(agentrunv1alpha1.AddToScheme(scheme))
}

func main() {
	var metricsAddr string
	var probeAddr string
	var enableLeaderElection bool
	var configFile string
	var agentImage string
	var agentImagePullPolicy string

	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8080", "The address the metric endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false,
		"Enable leader election for controller manager. "+
			"Enabling this will ensure there is only one active controller manager.")
	flag.StringVar(&configFile, "config-file", config.DefaultConfigPath, "Path to the mounted controller config file.")
	flag.StringVar(&agentImage, "agent-image", "", "Override the agent container image from the config file.")
	flag.StringVar(&agentImagePullPolicy, "agent-image-pull-policy", "", "Override the agent image pull policy (e.g. Always, Never, IfNotPresent).")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	cfg, err := config.Load(configFile)
	if err != nil {
		setupLog.Error(err, "unable to load controller config")
		os.Exit(1)
	}
	if agentImage != "" {
		cfg.AgentImage = agentImage
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: metricsAddr},
		HealthProbeBindAddress: probeAddr,
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       "agentrun-controller-leader-election",
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	jobBuilder := cfg.JobBuilder()
	if agentImagePullPolicy != "" {
		jobBuilder.ImagePullPolicy = corev1.PullPolicy(agentImagePullPolicy)
	}

	storeSource := controller.ConfigMapTemplateStoreSource{
		Client:        mgr.GetClient(),
		ConfigMapName: cfg.TemplateConfigMapName,
	}
	recorder := mgr.GetEventRecorderFor("agentrun-controller")

	if err = (&controller.DocsRunReconciler{
		Client:              mgr.GetClient(),
		JobBuilder:          jobBuilder,
		TemplateStoreSource: storeSource,
		Recorder:            recorder,
		MaxConcurrent:       cfg.MaxConcurrentReconciles,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "DocsRun")
		os.Exit(1)
	}

	if err = (&controller.CodeRunReconciler{
		Client:              mgr.GetClient(),
		JobBuilder:          jobBuilder,
		TemplateStoreSource: storeSource,
		Recorder:            recorder,
		MaxConcurrent:       cfg.MaxConcurrentReconciles,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "CodeRun")
		os.Exit(1)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}
